package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mediascribe/mediascribe/internal/bootstrap"
	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/internal/download"
	"github.com/mediascribe/mediascribe/internal/extract"
	"github.com/mediascribe/mediascribe/internal/pipeline"
	"github.com/mediascribe/mediascribe/internal/task"
	"github.com/mediascribe/mediascribe/internal/transcribe"
	"github.com/mediascribe/mediascribe/pkg/utils"
	"github.com/mediascribe/mediascribe/server"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the transcription server",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.InitConfig(configFile, dataDir)
		bootstrap.InitLog(debugFlag)
		bootstrap.InitDB()

		cfg := conf.Conf
		registry := task.NewRegistry(time.Duration(cfg.Tasks.RetentionMins) * time.Minute)
		stopReaper := make(chan struct{})
		registry.StartReaper(time.Minute, stopReaper)

		downloader := download.New(cfg.Download, cfg.OutputDir, filepath.Join(cfg.OutputDir, "thumbnails"))
		extractor := extract.New(cfg.OutputDir)
		engines := func(name string, opts transcribe.Options) (transcribe.Engine, error) {
			return transcribe.New(cfg.Transcribe, name, opts)
		}
		orchestrator := pipeline.New(registry, downloader, extractor, engines, cfg.Tasks.Workers)

		if !debugFlag {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.New()
		r.Use(gin.LoggerWithWriter(utils.Log.Out), gin.Recovery())
		server.Init(r, orchestrator, registry)

		addr := fmt.Sprintf("%s:%d", cfg.Scheme.Address, cfg.Scheme.HTTPPort)
		srv := &http.Server{Addr: addr, Handler: r}
		go func() {
			utils.Log.Infof("start HTTP server @ %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				utils.Log.Fatalf("failed to start http server: %+v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		utils.Log.Println("shutdown server...")

		close(stopReaper)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			utils.Log.Errorf("http server shutdown: %+v", err)
		}
		orchestrator.Wait()
		if err := db.Close(); err != nil {
			utils.Log.Errorf("close database: %+v", err)
		}
		utils.Log.Println("server exit")
	},
}

var debugFlag bool

func init() {
	RootCmd.AddCommand(ServerCmd)
	ServerCmd.Flags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}
