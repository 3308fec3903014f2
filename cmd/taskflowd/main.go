package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/taskflow-core/internal/adapters/notify"
	"github.com/ogurasousui/taskflow-core/internal/adapters/repository/kv"
	"github.com/ogurasousui/taskflow-core/internal/core/company"
	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/core/insight"
	"github.com/ogurasousui/taskflow-core/internal/core/reminder"
	"github.com/ogurasousui/taskflow-core/internal/core/task"
	"github.com/ogurasousui/taskflow-core/internal/platform/config"
	"github.com/ogurasousui/taskflow-core/internal/platform/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		logger = logger.Level(level)
	}

	var store storage.Store
	if cfg.Storage.Dir != "" {
		fileStore, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize file store")
		}
		store = fileStore
	} else {
		logger.Warn().Msg("no storage directory configured, data will not survive restarts")
		store = storage.NewMemoryStore()
	}

	companyRepo, err := kv.NewCompanyRepository(ctx, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load companies")
	}
	employeeRepo, err := kv.NewEmployeeRepository(ctx, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load employees")
	}
	taskRepo, err := kv.NewTaskRepository(ctx, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load tasks")
	}
	sessionRepo, err := kv.NewSessionRepository(ctx, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load session")
	}

	tx := storage.NewSerialTransactionManager()

	identitySvc := identity.NewService(employeeRepo, sessionRepo, nil, tx)
	companySvc := company.NewService(companyRepo, employeeRepo, nil, tx)
	taskSvc := task.NewService(taskRepo, employeeRepo, nil, tx)

	if err := seedInitialData(ctx, logger, companySvc, identitySvc, employeeRepo); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed initial data")
	}

	if cfg.Insight.Enabled {
		suggester := insight.NewGuard(
			insight.NewHeuristicSuggester(nil),
			logger.With().Str("component", "insight").Logger(),
		)
		suggestAssignments(ctx, logger, suggester, companySvc, identitySvc, taskSvc)
	}

	notifier := notify.NewLogNotifier(logger.With().Str("component", "notify").Logger())
	authorizer := notify.NewStaticAuthorizer(reminder.Permission(cfg.Reminder.Permission))
	scheduler := reminder.NewScheduler(
		taskSvc, notifier, authorizer, nil,
		cfg.Reminder.PollInterval,
		logger.With().Str("component", "reminder").Logger(),
	)

	logger.Info().Msg("taskflowd started")

	if err := scheduler.Run(ctx); err != nil &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, reminder.ErrNotificationsDenied) {
		logger.Fatal().Err(err).Msg("scheduler stopped with error")
	}

	logger.Info().Msg("taskflowd stopped")
}

// seedInitialData は空のストアに最初の会社と CEO アカウントを用意します。
// 既に従業員が存在する場合は何もしません。
func seedInitialData(ctx context.Context, logger zerolog.Logger, companies *company.Service, identities *identity.Service, employeeRepo *kv.EmployeeRepository) error {
	existing, err := identities.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	created, err := companies.AddCompany(ctx, company.AddCompanyInput{Name: "Default Company"})
	if err != nil {
		return err
	}

	// CEO はユースケース経由では作成できないため、リポジトリへ直接投入する。
	now := time.Now().UTC()
	ceo, err := employeeRepo.Create(ctx, &identity.Employee{
		Name:             "CEO",
		Email:            "ceo@example.com",
		Password:         "changeme",
		CompanyID:        created.ID,
		Role:             identity.RoleCEO,
		Status:           identity.StatusApproved,
		CanViewDashboard: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("company_id", created.ID).
		Str("ceo_id", ceo.ID).
		Msg("seeded initial company and ceo account")
	return nil
}

// suggestAssignments は未割り当てのタスクについて割り当て候補をログに出します。
// 提案器が利用できない場合は黙って諦めます。
func suggestAssignments(ctx context.Context, logger zerolog.Logger, suggester insight.Suggester, companies *company.Service, identities *identity.Service, tasks *task.Service) {
	allCompanies, err := companies.ListCompanies(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list companies for suggestions")
		return
	}
	allEmployees, err := identities.ListEmployees(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list employees for suggestions")
		return
	}
	allTasks, err := tasks.ListTasks(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list tasks for suggestions")
		return
	}

	snapshot := insight.Snapshot{Companies: allCompanies, Employees: allEmployees, Tasks: allTasks}
	for _, t := range allTasks {
		if t.AssigneeID != "" || t.Status == task.StatusCompleted {
			continue
		}

		suggestion, err := suggester.Suggest(ctx, insight.Request{
			Title:       t.Title,
			Description: t.Description,
			Snapshot:    snapshot,
		})
		if err != nil {
			if errors.Is(err, insight.ErrUnavailable) {
				return
			}
			logger.Error().Err(err).Str("task_id", t.ID).Msg("suggestion failed")
			continue
		}

		logger.Info().
			Str("task_id", t.ID).
			Str("suggested_assignee", suggestion.AssigneeID).
			Str("suggested_priority", string(suggestion.Priority)).
			Msg("assignment suggestion")
	}
}
