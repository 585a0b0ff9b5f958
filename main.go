package main

import (
	"fmt"
	golog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yaytsa-site/config"
	"yaytsa-site/database"
	"yaytsa-site/ffmpeg"
	"yaytsa-site/handlers"
	"yaytsa-site/lrclib"
	"yaytsa-site/lyrics"
	"yaytsa-site/lyricsfetch"
	"yaytsa-site/procrun"
	"yaytsa-site/separator"
	"yaytsa-site/tracks"
	"yaytsa-site/users"
	"yaytsa-site/ytdlp"
)

var db *gorm.DB
var downloader *ytdlp.Downloader
var transcoder *ffmpeg.Transcoder

func ensureAdminAccount(db *gorm.DB) error {

	var user users.User
	if err := db.Where("username = ?", "admin").First(&user).Error; err != nil {
		// no such user

		password, err := config.GetAdminInitialPassword()
		if err != nil {
			return err
		}

		err = users.Create(db, "admin", password)
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {

	godotenv.Load()

	initLogger()

	log.Infof("GitSHA: %s", config.GetGitSHA())
	log.Infof("BuildDate: %s", config.GetBuildDate())

	procrun.Init(log)
	ffmpeg.Init(log)
	ytdlp.Init(log)
	separator.Init(log)
	lyricsfetch.Init(log)
	lrclib.Init(log)
	lyrics.Init(log)
	tracks.Init(log)

	gormLogger := logger.New(
		golog.New(os.Stdout, "\r\n", golog.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	for _, dir := range []string{config.GetConfigDir(), config.GetDataDir(), config.GetStemsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			log.Panicf("failed to create dir %s", dir)
		}
	}

	// Initialize database
	dbPath := filepath.Join(config.GetConfigDir(), "tracks.db")
	var err error
	db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Panicf("failed to connect to database %s", dbPath)
	}

	// set only a single connection so we don't actually have concurrent writes
	sqlDB, err := db.DB()
	if err != nil {
		log.Panicln("failed to retrieve database")
	}
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	db.AutoMigrate(&tracks.Track{}, &users.User{})

	database.Init(db, log)
	defer database.Fini()

	// create a user
	err = ensureAdminAccount(db)
	if err != nil {
		panic(fmt.Sprintf("failed to create admin user: %v", err))
	}

	// pipeline components
	downloader = ytdlp.NewDownloader()
	transcoder = ffmpeg.NewTranscoder(config.GetMaxConcurrentTranscodes(), config.GetTranscodeTimeout())
	separatorClient := separator.NewClient(config.GetSeparatorURL())
	fetcherClient := lyricsfetch.NewClient(config.GetLyricsFetcherURL())
	publicClient := lrclib.NewClient(config.GetLrclibURL())
	resolver := &lyrics.Resolver{
		Public:    publicClient,
		Fetcher:   fetcherClient,
		OutputDir: config.GetDataDir(),
	}

	err = handlers.Init(log, handlers.Services{
		Separator: separatorClient,
		Fetcher:   fetcherClient,
		Resolver:  resolver,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to init handlers: %v", err))
	}

	// Initialize Echo
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Routes
	e.POST("/login", handlers.LoginPost)
	e.GET("/logout", handlers.Logout)
	e.GET("/status", handlers.StatusGet, handlers.AuthMiddleware)

	e.POST("/tracks", handlers.IngestPost, handlers.AuthMiddleware)
	e.GET("/tracks", handlers.TracksGet, handlers.AuthMiddleware)
	e.GET("/tracks/:id", handlers.TrackGet, handlers.AuthMiddleware)
	e.POST("/tracks/:id/delete", handlers.TrackDelete, handlers.AuthMiddleware)
	e.GET("/tracks/:id/lyrics", handlers.LyricsGet, handlers.AuthMiddleware)
	e.POST("/tracks/:id/karaoke", handlers.KaraokeStart, handlers.AuthMiddleware)
	e.GET("/tracks/:id/karaoke/progress", handlers.KaraokeProgress, handlers.AuthMiddleware)

	dataGroup := e.Group("/data")
	dataGroup.Use(handlers.AuthMiddleware)
	dataGroup.Static("/", config.GetDataDir())

	// start the background workers
	go ingestWorker()
	go periodicCleanup()

	// Start server
	e.Logger.Fatal(e.Start(":8080"))
}
