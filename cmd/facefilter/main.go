package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gioui.org/app"
	"github.com/esimov/facefilter"
	"github.com/esimov/facefilter/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┌─┐┌─┐┌─┐┌─┐┬┬  ┌┬┐┌─┐┬─┐
├┤ ├─┤│  ├┤ ├┤ ││   │ ├┤ ├┬┘
└  ┴ ┴└─┘└─┘└  ┴┴─┘ ┴ └─┘┴└─

Real time face accessory filter.
    Version: %s

Every flag defaults to the FACEFILTER_<FLAG> environment variable,
which can also be set in a .env file of the working directory.

`

// Version indicates the current build version.
var Version string

func main() {
	log.SetFlags(0)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(utils.DecorateText("Unable to load the .env file: %v\n", utils.ErrorMessage), err)
	}
	cfg := parseFlags()
	if err := cfg.Validate(); err != nil {
		flag.Usage()
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	logger, err := utils.NewLogger(utils.LogOptions{
		Level:    cfg.LogLevel,
		File:     cfg.LogFile,
		NoColors: !term.IsTerminal(int(os.Stderr.Fd())),
	})
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	if !cfg.Preview {
		os.Exit(run(cfg, logger, nil))
	}

	// The Gio event loop has to own the main goroutine.
	preview := facefilter.NewPreview("facefilter", cfg.Width, cfg.Height)
	go func() {
		os.Exit(run(cfg, logger, preview))
	}()
	app.Main()
}

// run wires the application components and blocks until the video stream ends,
// the preview window is closed or the process is interrupted. It returns the exit code.
func run(cfg facefilter.Config, logger *logrus.Logger, preview *facefilter.Preview) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ FACEFILTER", utils.StatusMessage),
		utils.DecorateText("is loading the face detector...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*200, true)
	defer spinner.RestoreCursor()

	if term.IsTerminal(int(os.Stderr.Fd())) {
		spinner.Start()
	}
	detector, closeDetector, err := newDetector(ctx, cfg, logger)
	spinner.StopMsg = fmt.Sprintf("%s %s\n",
		utils.DecorateText("⚡ FACEFILTER", utils.StatusMessage),
		utils.DecorateText("is loading the face detector... ✔", utils.DefaultMessage))
	if err != nil {
		spinner.StopMsg = ""
	}
	spinner.Stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(fmt.Sprintf("Unable to initialize the face detector: %v", err), utils.ErrorMessage))
		return 1
	}
	defer closeDetector()

	renderer := facefilter.NewRenderer(facefilter.NewSurface(), facefilter.TopologyOf(detector), logrus.NewEntry(logger))
	renderer.Placement = cfg.Placement()
	renderer.Debug = cfg.Debug

	if cfg.Accessory != "" {
		asset := facefilter.LoadAsset(ctx, cfg.Accessory)
		renderer.Accessory = asset
		go func() {
			if err := asset.Wait(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("accessory not available: %v", err)
				return
			}
			logger.WithField("accessory", cfg.Accessory).Debug("accessory loaded")
		}()
	}

	tint, err := cfg.Tint()
	if err == nil {
		err = renderer.SetTint(tint)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		return 1
	}

	sink, err := newSink(cfg, preview)
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		return 1
	}

	settings := facefilter.NewSettings(facefilter.ParseDrawMode(cfg.Mode), cfg.Background)
	session, err := facefilter.NewSession(facefilter.SessionOptions{
		Capturer: cfg.Capturer(),
		Detector: detector,
		Renderer: renderer,
		Controls: settings,
		Sink:     sink,
		FPS:      cfg.FPS,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		return 1
	}

	// The draw mode and the background can be changed while running by typing commands.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		entry := logger.WithFields(logrus.Fields{"session": session.ID[:8], "component": "controls"})
		go func() {
			if err := settings.ReadCommands(os.Stdin, entry); err != nil {
				entry.Warnf("stopped reading commands: %v", err)
			}
		}()
	}

	if err := session.Start(ctx); err != nil {
		var permErr *facefilter.PermissionError
		if errors.As(err, &permErr) && errors.Is(err, facefilter.ErrNoDevice) {
			fmt.Fprintln(os.Stderr, utils.DecorateText(fmt.Sprintf("No video source available: %v", permErr.Cause), utils.ErrorMessage))
		} else {
			fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
		return 1
	}

	ended := make(chan struct{})
	go func() {
		session.Wait()
		close(ended)
	}()

	var closed <-chan struct{}
	if preview != nil {
		closed = preview.Closed()
		go func() {
			if err := preview.Run(); err != nil {
				logger.Errorf("preview window: %v", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case <-closed:
	case <-ended:
	}
	session.Stop()

	timing := session.LastTiming()
	fmt.Fprintf(os.Stderr, "\nLast frame: %s (%s)\n",
		utils.DecorateText(utils.FormatTime(timing.Total), utils.SuccessMessage),
		utils.FormatFPS(timing.Total),
	)
	return 0
}

// newDetector creates the detector selected by the settings and its release function.
func newDetector(ctx context.Context, cfg facefilter.Config, logger *logrus.Logger) (facefilter.Detector, func(), error) {
	switch cfg.Detector {
	case "remote":
		d, err := facefilter.DialRemoteDetector(ctx, facefilter.RemoteOptions{URL: cfg.RemoteURL}, logrus.NewEntry(logger))
		if err != nil {
			return nil, nil, err
		}
		return d, func() {
			if err := d.Close(); err != nil {
				logger.Warnf("could not close the remote detector: %v", err)
			}
		}, nil
	default:
		d, err := facefilter.NewPigoDetector(cfg.Cascades, facefilter.DefaultPigoOptions())
		if err != nil {
			return nil, nil, err
		}
		return d, func() {}, nil
	}
}

// newSink creates the frame outputs selected by the settings.
func newSink(cfg facefilter.Config, preview *facefilter.Preview) (facefilter.Sink, error) {
	var sinks facefilter.MultiSink

	if cfg.Out != "" {
		fileSink, err := facefilter.NewFileSink(cfg.Out)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fileSink)
	}
	if cfg.Stream {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("`-stream` should be used with a pipe for stdout")
		}
		sinks = append(sinks, facefilter.NewStreamSink(os.Stdout))
	}
	if preview != nil {
		sinks = append(sinks, preview)
	}
	return sinks, nil
}

// parseFlags parses the command line flags. The defaults are taken from the environment.
func parseFlags() facefilter.Config {
	def := facefilter.DefaultConfig()
	cfg := def

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}

	flag.StringVar(&cfg.Source, "in", envString("IN", def.Source), "Source image, image URL or directory of frames (overrides -camera)")
	flag.IntVar(&cfg.Camera, "camera", envInt("CAMERA", def.Camera), "Webcam device id, -1 to disable")
	flag.IntVar(&cfg.Width, "width", envInt("WIDTH", def.Width), "Requested webcam frame width")
	flag.IntVar(&cfg.Height, "height", envInt("HEIGHT", def.Height), "Requested webcam frame height")
	flag.BoolVar(&cfg.Mirror, "mirror", envBool("MIRROR", def.Mirror), "Flip the frames horizontally")
	flag.BoolVar(&cfg.Loop, "loop", envBool("LOOP", def.Loop), "Loop over the source frames")
	flag.StringVar(&cfg.Detector, "detector", envString("DETECTOR", def.Detector), "Landmark detector: pigo | remote")
	flag.StringVar(&cfg.Cascades, "cascades", envString("CASCADES", def.Cascades), "Directory of the pigo cascade files")
	flag.StringVar(&cfg.RemoteURL, "remote", envString("REMOTE", def.RemoteURL), "Websocket URL of the remote landmark detector")
	flag.StringVar(&cfg.Accessory, "accessory", envString("ACCESSORY", def.Accessory), "Accessory image path or URL")
	flag.StringVar(&cfg.Mode, "mode", envString("MODE", def.Mode), "Draw mode: mesh | landmarks | fun-filter | none")
	flag.BoolVar(&cfg.Background, "bg", envBool("BG", def.Background), "Draw the video frame under the overlays")
	flag.Float64Var(&cfg.FPS, "fps", envFloat("FPS", def.FPS), "Maximum frame rate")
	flag.BoolVar(&cfg.Debug, "debug", envBool("DEBUG", def.Debug), "Mark the pupil centers")
	flag.Float64Var(&cfg.WidthFactor, "wf", envFloat("WF", def.WidthFactor), "Accessory width factor")
	flag.Float64Var(&cfg.HeightDivisor, "hd", envFloat("HD", def.HeightDivisor), "Accessory height divisor")
	flag.StringVar(&cfg.TintColor, "tint", envString("TINT", def.TintColor), "Fun filter tint color (#rrggbbaa), empty to disable")
	flag.StringVar(&cfg.TintBlend, "blend", envString("BLEND", def.TintBlend), "Fun filter tint blend mode")
	flag.StringVar(&cfg.TintComposite, "composite", envString("COMPOSITE", def.TintComposite), "Fun filter tint composite operation")
	flag.StringVar(&cfg.Out, "out", envString("OUT", def.Out), "Save the rendered frames as numbered images (e.g. out/frame.png)")
	flag.BoolVar(&cfg.Stream, "stream", envBool("STREAM", def.Stream), "Write the rendered frames as MJPEG to stdout")
	flag.BoolVar(&cfg.Preview, "preview", envBool("PREVIEW", def.Preview), "Show the rendered frames in a window")
	flag.StringVar(&cfg.LogLevel, "log", envString("LOG", def.LogLevel), "Log level: debug | info | warn | error")
	flag.StringVar(&cfg.LogFile, "logfile", envString("LOGFILE", def.LogFile), "Rotated log file")
	flag.Parse()

	return cfg
}

const envPrefix = "FACEFILTER_"

func envString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(envString(key, "")); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(envString(key, ""), 64); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(envString(key, "")); err == nil {
		return v
	}
	return def
}
