package di

import (
	"context"
	"net/http"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/ai/tools"
	"github.com/ezhov-dev/zapguard/internal/cache"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/network"
	"github.com/ezhov-dev/zapguard/internal/queue"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

// Container wires every long-lived collaborator once, at startup.
// Construction order follows the dependency chain, anything that can fail
// fails here, before the bot connects.
type Container struct {
	Cfg    *config.Config
	Logger logger.Logger

	DB    database.Database
	Cache cache.Cache
	Queue *queue.Queue

	HTTPClient *http.Client
	Localizer  *service.Localizer
	Search     *service.DuckDuckGoSearch

	AIClient     *ai.Client
	Rotation     *ai.Rotation
	Tools        *tools.Tools
	Orchestrator *ai.Orchestrator

	WA          whatsapp.Client
	ChatService *service.ChatService
	Docs        *service.DocsService
	Attendance  *service.AttendanceService
	Reminders   *service.ReminderService
	Memory      *service.MemoryService
	Browser     *service.Browser
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Cfg: cfg}

	logCfg := cfg.Log()
	c.Logger = logger.NewLogrusLogger(&logCfg)

	db, err := database.NewSQLiteDB(cfg, c.Logger)
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.Cache = cache.NewMultiLevelCache(cache.NewMemoryCache(), cache.NewDBCache(db), c.Logger)
	c.Queue = queue.NewQueue(db, c.Logger)

	c.Localizer, err = service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		return nil, err
	}

	c.HTTPClient = network.SetupHTTPClient(network.NewDefaultHTTPClientConfig(cfg.HTTP()), c.Logger)

	// search scrapes HTML pages, a hung connection there should fail fast
	// instead of inheriting the long AI completion timeout
	downloadClient := network.SetupHTTPClient(network.NewDownloadHTTPClientConfig(cfg.HTTP()), c.Logger)
	c.Search = service.NewDuckDuckGoSearch(downloadClient, cfg.Search().RateLimit)

	aiCfg := cfg.AI()
	c.AIClient = ai.NewClient(c.HTTPClient, aiCfg.BaseURL, aiCfg.ChatURL, c.Logger)
	c.Rotation = ai.NewRotation(aiCfg.Rotation, c.Logger)
	c.Tools = tools.NewTools(c.Search, c.Logger)
	c.Orchestrator = ai.NewOrchestrator(
		c.AIClient,
		c.Rotation,
		c.Tools,
		tools.ToolList(aiCfg.ExcludedTools),
		tools.AvailableToolsText(aiCfg.ExcludedTools),
		aiCfg,
		c.Logger,
	)

	c.WA, err = whatsapp.NewClient(ctx, cfg.WhatsApp(), c.Logger)
	if err != nil {
		return nil, err
	}

	c.ChatService = service.NewChatService(c.WA, c.Cache, c.Logger)
	c.Docs = service.NewDocsService(db, c.WA, cfg.Docs(), c.Logger)
	c.Attendance = service.NewAttendanceService(db, c.WA, c.Localizer, cfg.Attendance(), c.Logger)
	c.Reminders = service.NewReminderService(db, c.WA, c.Localizer, c.Logger)
	c.Memory = service.NewMemoryService(db, c.AIClient, c.Rotation, aiCfg.EmbeddingsModel, c.Logger)
	c.Browser = service.NewBrowser(cfg.Chrome(), c.Logger)

	return c, nil
}

// Close releases everything the container owns.
func (c *Container) Close() error {
	if c.WA != nil {
		c.WA.Disconnect()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
