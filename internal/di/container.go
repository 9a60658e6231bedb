package di

import (
	"github.com/bootcamp67/ms-transaction/internal/config"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/api/handlers"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/balance"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/database/repositories"
	"github.com/bootcamp67/ms-transaction/internal/usecases/interactor"
	"github.com/bootcamp67/ms-transaction/pkg/postgresql"
)

type Container struct {
	TransactionHandler *handlers.TransactionHandler
	QueryHandler       *handlers.QueryHandler
	RecoveryInteractor *interactor.RecoveryInteractor
	JWTSecret          string
}

// NewContainer creates a new Container instance.
func NewContainer(db postgresql.Client, notifier services.Notifier, cfg *config.Config) (*Container, error) {
	transactionRepository := repositories.NewTransactionRepositoryImpl(db)
	sagaStepRepository := repositories.NewSagaStepRepositoryImpl(db)

	balanceCfg := balance.DefaultConfig(cfg.Balance.URL)
	timeout, err := cfg.Balance.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	balanceCfg.Timeout = timeout
	balanceClient := balance.NewClient(balanceCfg)

	fees, err := loadFees(cfg.Fees)
	if err != nil {
		return nil, err
	}
	transactionInteractor := interactor.NewTransactionInteractor(transactionRepository, sagaStepRepository, balanceClient, notifier, fees)
	transactionHandler := handlers.NewTransactionHandler(transactionInteractor)

	queryInteractor := interactor.NewQueryInteractor(transactionRepository)
	queryHandler := handlers.NewQueryHandler(queryInteractor)

	recoveryCfg, err := loadRecovery(cfg.Process)
	if err != nil {
		return nil, err
	}
	recoveryInteractor := interactor.NewRecoveryInteractor(transactionRepository, sagaStepRepository, balanceClient, notifier, recoveryCfg)

	return &Container{
		TransactionHandler: transactionHandler,
		QueryHandler:       queryHandler,
		RecoveryInteractor: recoveryInteractor,
		JWTSecret:          cfg.Auth.JWTSecret,
	}, nil
}

func loadFees(cfg config.Fees) (interactor.Fees, error) {
	withdrawal, err := cfg.WithdrawalFee()
	if err != nil {
		return interactor.Fees{}, err
	}
	transfer, err := cfg.TransferFee()
	if err != nil {
		return interactor.Fees{}, err
	}
	return interactor.Fees{Withdrawal: withdrawal, Transfer: transfer}, nil
}

func loadRecovery(cfg config.Process) (interactor.RecoveryConfig, error) {
	staleAfter, err := cfg.StaleAfterDuration()
	if err != nil {
		return interactor.RecoveryConfig{}, err
	}
	maxAttempts, err := cfg.MaxCompensations()
	if err != nil {
		return interactor.RecoveryConfig{}, err
	}
	return interactor.RecoveryConfig{StaleAfter: staleAfter, MaxCompensationAttempts: maxAttempts}, nil
}
