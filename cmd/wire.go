package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/bnema/evo/internal/adapters/archive"
	"github.com/bnema/evo/internal/adapters/credential"
	"github.com/bnema/evo/internal/adapters/generator/gemini"
	openaigen "github.com/bnema/evo/internal/adapters/generator/openai"
	"github.com/bnema/evo/internal/adapters/instructions"
	badgermirror "github.com/bnema/evo/internal/adapters/mirror/badger"
	tomlmirror "github.com/bnema/evo/internal/adapters/mirror/toml"
	"github.com/bnema/evo/internal/adapters/prompt"
	statusadapter "github.com/bnema/evo/internal/adapters/render/status"
	chainstore "github.com/bnema/evo/internal/adapters/secrets/chain"
	"github.com/bnema/evo/internal/adapters/seed"
	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/config"
	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const configFileEnv = "EVO_CONFIG"

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	secretStore    ports.SecretStore
	prompter       *prompt.Prompter
	statusRenderer func(statusadapter.SessionView, statusadapter.RenderOptions) string
	httpClient     *http.Client
	now            func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New(), config.LoadOptions{ConfigFile: os.Getenv(configFileEnv)})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	secretStore, err := chainstore.NewPassWithFileFallback(cfg.SecretsDir())
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	return &app{
		cfg:            cfg,
		logger:         newLogger(os.Stderr, cfg.Log),
		secretStore:    secretStore,
		prompter:       prompt.NewPrompter(cfg.Backend.Provider),
		statusRenderer: statusadapter.Render,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
	}, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func credentialKey(provider string) string {
	return "evo/" + provider + "/api_key"
}

func (a *app) credentialValidator() application.CredentialValidator {
	if a.cfg.Backend.Provider == config.ProviderOpenAI {
		return openaigen.ValidateKey
	}
	return gemini.ValidateKey
}

func (a *app) newCredentialResolver(prompter ports.CredentialPrompter, logger *slog.Logger) *application.CredentialResolver {
	return application.NewCredentialResolver(application.CredentialResolverOptions{
		Cache:     credential.NewEnclaveCache(),
		Store:     a.secretStore,
		Prompter:  prompter,
		Key:       credentialKey(a.cfg.Backend.Provider),
		Validator: a.credentialValidator(),
		Logger:    logger,
	})
}

func (a *app) newBackend() ports.VariantGenerator {
	backend := a.cfg.Backend
	if backend.Provider == config.ProviderOpenAI {
		return openaigen.New(openaigen.Config{
			BaseURL:        backend.BaseURL,
			Model:          backend.Model,
			RequestTimeout: backend.Timeout,
		})
	}

	return gemini.New(gemini.Config{
		BaseURL:        backend.BaseURL,
		Model:          backend.Model,
		RequestTimeout: backend.Timeout,
	})
}

// openMirror returns a nil mirror when mirroring is disabled.
func (a *app) openMirror(logger *slog.Logger) (ports.StateMirror, func() error, error) {
	noop := func() error { return nil }
	mirror := a.cfg.Mirror

	switch mirror.Backend {
	case config.MirrorNone:
		return nil, noop, nil
	case config.MirrorBadger:
		store, err := badgermirror.Open(badgermirror.Config{
			Path:   mirror.Path,
			Quota:  mirror.QuotaBytes,
			Logger: logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		store, err := tomlmirror.NewStore(mirror.Path, mirror.QuotaBytes)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
}

func (a *app) newArchive(ctx context.Context) (ports.RoundArchive, []func() error, error) {
	var targets archive.Multi
	var closers []func() error

	if a.cfg.Archive.Dir != "" {
		dir, err := archive.NewDirArchive(a.cfg.Archive.Dir)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, dir)
	}
	if a.cfg.Archive.GCSBucket != "" {
		gcs, err := archive.NewGCSArchive(ctx, a.cfg.Archive.GCSBucket, a.cfg.Archive.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, gcs)
		closers = append(closers, gcs.Close)
	}

	switch len(targets) {
	case 0:
		return nil, nil, nil
	case 1:
		return targets[0], closers, nil
	default:
		return targets, closers, nil
	}
}

type sessionOptions struct {
	logger   *slog.Logger
	metrics  ports.Metrics
	prompter ports.CredentialPrompter
}

// session is a fully wired round controller plus what must be released
// when it stops.
type session struct {
	controller  *application.Controller
	credentials *application.CredentialResolver
	closers     []func() error
}

func (s *session) Close() error {
	var errs []error
	for _, closeFn := range slices.Backward(s.closers) {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	credential.Purge()
	return errors.Join(errs...)
}

func (a *app) newSession(ctx context.Context, opts sessionOptions) (*session, error) {
	logger := opts.logger
	if logger == nil {
		logger = a.logger
	}
	metrics := opts.metrics
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	items, err := instructions.NewFileSource(a.cfg.Instructions.Path).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load instructions: %w", err)
	}
	seedImage, err := seed.Load(ctx, a.cfg.Seed.Path)
	if err != nil {
		return nil, fmt.Errorf("load seed image: %w", err)
	}

	s := &session{credentials: a.newCredentialResolver(opts.prompter, logger)}

	mirror, closeMirror, err := a.openMirror(logger)
	if err != nil {
		return nil, fmt.Errorf("open state mirror: %w", err)
	}
	s.closers = append(s.closers, closeMirror)

	roundArchive, archiveClosers, err := a.newArchive(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("wire round archive: %w", err)
	}
	s.closers = append(s.closers, archiveClosers...)

	policy := application.RetryPolicy{MaxAttempts: a.cfg.Retry.Attempts, Delay: a.cfg.Retry.Delay}
	controller, err := application.NewController(application.ControllerDeps{
		Session:       domain.NewSessionState(uuid.NewString(), seedImage),
		Pool:          domain.NewInstructionPool(items, nil),
		Tally:         domain.NewVoteTally(a.cfg.Votes.Required),
		Generator:     application.NewRetrySupervisor(a.newBackend(), policy, logger, metrics),
		Credentials:   s.credentials,
		Mirror:        application.NewMirrorSync(mirror, logger),
		Archive:       roundArchive,
		Metrics:       metrics,
		Clock:         ports.SystemClock{},
		Logger:        logger,
		RetryAttempts: policy.MaxAttempts,
		ManualAdvance: a.cfg.Session.ManualAdvance,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("wire round controller: %w", err)
	}
	s.controller = controller

	logger.Info("session wired",
		"provider", a.cfg.Backend.Provider,
		"instructions", len(items),
		"mirror", a.cfg.Mirror.Backend,
		"votes_required", a.cfg.Votes.Required,
	)
	return s, nil
}

// resolveCredential fails early so a missing key is reported before the
// first round instead of as a round failure.
func (s *session) resolveCredential(ctx context.Context) error {
	if _, err := s.credentials.Resolve(ctx); err != nil {
		if errors.Is(err, domain.ErrCredentialMissing) {
			return fmt.Errorf("%w: run `evo auth set` or start evo from a terminal", err)
		}
		return err
	}
	return nil
}

func parseSlotArg(raw string) (domain.VariantSlot, error) {
	return domain.ParseVariantSlot(strings.TrimSpace(raw))
}
