package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"ascii-telnet/internal/config"
	"ascii-telnet/internal/framestore"
	"ascii-telnet/internal/handlers"
	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/server"

	"github.com/kataras/iris/v12"
)

//go:embed static/*
var staticFS embed.FS

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	dataset := flag.String("path", config.DefaultDatasetPath, "Frame dataset (JSONL)")
	port := flag.Int("port", config.DefaultPort, "Telnet listen port")
	host := flag.String("host", config.DefaultHost, "Listen host")
	raw := flag.Bool("raw", false, "Raw mode: no telnet negotiation or filtering")
	logEnabled := flag.Bool("log", true, "Enable logging")
	debug := flag.Bool("debug", false, "Enable debug logging")
	httpPort := flag.Int("http", 0, "HTTP/WebSocket port (0 disables)")
	watch := flag.Bool("watch", false, "Reload the dataset when the file changes")
	openWeb := flag.Bool("open", false, "Open the browser terminal after start")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "配置错误: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// 命令行显式给出的参数覆盖配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.DatasetPath = *dataset
		case "port":
			cfg.ListenPort = *port
		case "host":
			cfg.ListenHost = *host
		case "raw":
			cfg.RawMode = *raw
		case "log":
			cfg.LoggingEnabled = *logEnabled
		case "debug":
			cfg.Debug = *debug
		case "http":
			cfg.HTTPPort = *httpPort
		case "watch":
			cfg.WatchDataset = *watch
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置错误: %v\n", err)
		os.Exit(1)
	}

	logging.SetEnabled(cfg.LoggingEnabled)
	logging.SetDebugMode(cfg.Debug)

	store, err := framestore.Load(cfg.DatasetPath, cfg.MinFrames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "数据集加载失败: %v\n", err)
		os.Exit(1)
	}
	holder := framestore.NewHolder(store)

	fmt.Println("============================================================")
	fmt.Println("ASCII Telnet 播放服务")
	fmt.Println("============================================================")
	fmt.Printf("数据集: %s (%d 帧, %.1fs)\n", cfg.DatasetPath, store.Len(), store.Duration().Seconds())
	fmt.Printf("Telnet: %s [%s]\n", cfg.ListenAddr(), cfg.Mode())
	if cfg.HTTPPort > 0 {
		fmt.Printf("HTTP:   http://localhost:%d\n", cfg.HTTPPort)
	}
	fmt.Println("============================================================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchDataset {
		go func() {
			if err := holder.Watch(ctx, cfg.MinFrames); err != nil && !errors.Is(err, context.Canceled) {
				logging.LogWarn("[Dataset] 文件监听失败", "error", err)
			}
		}()
	}

	srv := server.New(cfg, holder)

	var app *iris.Application
	if cfg.HTTPPort > 0 {
		app = newApp(srv)
		go func() {
			if err := app.Listen(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.LogError("[HTTP] 服务错误", "error", err)
			}
		}()
		if *openWeb {
			go func() {
				time.Sleep(500 * time.Millisecond)
				openBrowser(fmt.Sprintf("http://localhost:%d", cfg.HTTPPort))
			}()
		}
	}

	// 优雅关闭
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		fmt.Println("\n正在关闭...")
		cancel()
		if app != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
			defer done()
			app.Shutdown(shutdownCtx)
		}
	}()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "服务器错误: %v\n", err)
		os.Exit(1)
	}
	srv.Shutdown()
}

// newApp HTTP 状态接口、WebSocket 终端与事件接口
func newApp(srv *server.Server) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel("warn")

	app.UseRouter(allowCORS)

	server.RegisterRoutes(app, server.NewHandlers(srv))
	ws := handlers.NewEventHandler(srv).Mount(app)
	iris.RegisterOnInterrupt(ws.Close)

	// 嵌入的静态文件
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		logging.LogWarn("[HTTP] 无法加载嵌入的静态文件", "error", err)
	} else {
		app.HandleDir("/", http.FS(staticSub), iris.DirOptions{
			IndexName: "index.html",
			SPA:       true,
		})
	}
	return app
}

// allowCORS 状态接口允许跨域读取
func allowCORS(ctx iris.Context) {
	ctx.Header("Access-Control-Allow-Origin", "*")
	ctx.Header("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
	if ctx.Method() == iris.MethodOptions {
		ctx.StatusCode(iris.StatusNoContent)
		return
	}
	ctx.Next()
}

var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// openBrowser 在浏览器中打开网页终端
func openBrowser(url string) {
	argv, ok := browserCommands[runtime.GOOS]
	if !ok || exec.Command(argv[0], append(argv[1:], url)...).Start() != nil {
		logging.LogInfo("[HTTP] 请在浏览器中打开", "url", url)
	}
}
