// Command c8 runs CHIP-8 programs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"golang.org/x/term"

	"github.com/nf/c8/chip8"
	"github.com/nf/c8/host"
)

// frontEnd is a user interface that drives a runner until the user quits.
type frontEnd interface {
	Run() error
	Quit()
}

func main() {
	log.SetPrefix("c8: ")
	log.SetFlags(0)

	var (
		tuiFlag      = flag.Bool("tui", false, "run in the terminal")
		shinyFlag    = flag.Bool("shiny", false, "use the shiny window instead of ebiten")
		headlessFlag = flag.Bool("headless", false, "run without a window and print the CRC-32 of the final display")
		workerFlag   = flag.Bool("worker", false, "run the machine on a background goroutine, without frame pacing or sound")
		watchFlag    = flag.Bool("watch", false, "reload the program when its file changes")
		splashFlag   = flag.Bool("splash", true, "show the splash program until a program is loaded")

		framesFlag = flag.Int("frames", 600, "frames to run in headless mode")
		pngFlag    = flag.String("png", "", "headless: write the final display to PNG `file`")
		wavFlag    = flag.String("wav", "", "headless: write the sound to WAV `file`")
		keysFlag   = flag.String("keys", "", "headless: key `script`, e.g. 10:+5,20:-5")

		clockFlag    = flag.Float64("clock", host.DefaultClock, "clock rate in instructions per second")
		fgFlag       = flag.String("fg", host.DefaultFG, "foreground `color`")
		bgFlag       = flag.String("bg", host.DefaultBG, "background `color`")
		volumeFlag   = flag.Float64("volume", host.DefaultVolume, "volume, 0 to 1")
		settingsFlag = flag.String("settings", "", "load and save settings in JSON `file`")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
		statsFlag      = flag.Bool("statsview", false, "serve runtime charts on "+statsAddr)
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [program.ch8 | URL]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -headless [-frames n] [-keys script] [-png file] [-wav file] <program.ch8 | URL>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() > 1 || (*headlessFlag && flag.NArg() != 1) {
		flag.Usage()
	}

	settings := host.NewSettings()
	if *settingsFlag != "" {
		if err := settings.Load(*settingsFlag); err != nil {
			log.Print(err)
		}
	}
	// Flags given on the command line override the settings file.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "clock":
			settings.SetClock(*clockFlag)
		case "volume":
			settings.SetVolume(*volumeFlag)
		case "fg", "bg":
			var (
				c   = settings.Colors()
				err error
			)
			if f.Name == "fg" {
				c.FG, err = host.ParseColor(*fgFlag)
			} else {
				c.BG, err = host.ParseColor(*bgFlag)
			}
			if err != nil {
				flagErr = fmt.Errorf("-%s: %w", f.Name, err)
				return
			}
			settings.SetColors(c)
		}
	})
	if flagErr != nil {
		log.Fatal(flagErr)
	}

	if *tuiFlag && !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Fatal("-tui: standard output is not a terminal")
	}
	if *statsFlag {
		launchStats()
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err := run(options{
		tui:      *tuiFlag,
		shiny:    *shinyFlag,
		headless: *headlessFlag,
		worker:   *workerFlag,
		watch:    *watchFlag,
		splash:   *splashFlag && !*headlessFlag,
		frames:   *framesFlag,
		png:      *pngFlag,
		wav:      *wavFlag,
		keys:     *keysFlag,
		src:      flag.Arg(0),
		settings: settings,
		file:     *settingsFlag,
	})

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

type options struct {
	tui, shiny, headless bool
	worker, watch        bool
	splash               bool

	frames   int
	png, wav string
	keys     string
	src      string
	settings *host.Settings
	file     string
}

func run(o options) error {
	keyScript, err := parseKeyScript(o.keys)
	if err != nil {
		return err
	}

	var (
		frame   = &host.SharedFrame{}
		cadence *host.ManualCadence
		rec     *wavSink
		cfg     = host.Config{
			Factory:  chip8.New,
			Sink:     frame,
			Settings: o.settings,
		}
	)
	switch {
	case o.worker:
		cfg.Mode = host.Background
	case o.tui:
		cfg.Cadence = host.TickerCadence{}
	default:
		cadence = &host.ManualCadence{}
		cfg.Cadence = cadence
	}
	switch {
	case o.headless:
		if o.wav != "" {
			rec = &wavSink{}
			cfg.Audio = rec
		}
	case o.shiny, o.tui:
		cfg.Audio = &otoSink{}
	default:
		cfg.Audio = newEbitenSink()
	}

	r := host.NewRunner(cfg)
	defer r.Close()
	cmd := &commander{r: r, settingsFile: o.file}

	var fe frontEnd
	switch {
	case o.headless:
		fe = &headless{
			r:       r,
			frame:   frame,
			cadence: cadence,
			audio:   rec,
			frames:  o.frames,
			keys:    keyScript,
			png:     o.png,
			wav:     o.wav,
		}
	case o.tui:
		t := newTUI(r, frame, cmd, host.DefaultKeyMap)
		cmd.loaded = func(string) {
			t.app.QueueUpdateDraw(func() { t.setListing(r.ROM()) })
		}
		fe = t
	case o.shiny:
		fe = newShinyGUI(r, frame, cadence, host.DefaultKeyMap)
	default:
		fe = newGUI(r, frame, cadence, host.DefaultKeyMap)
	}
	log.Printf("%v mode, clock %v Hz", r.Mode(), o.settings.Clock())

	switch {
	case o.src != "":
		if r.LoadSource(context.Background(), o.src, true) {
			log.Printf("%s: loaded fallback program", o.src)
		}
	case o.splash:
		r.Load(host.Splash, false)
	default:
		r.Load(nil, false)
	}
	if cmd.loaded != nil {
		cmd.loaded(o.src)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if o.watch && o.src != "" && !isURL(o.src) {
		if err := watchROM(ctx, r, o.src, cmd.loaded); err != nil {
			return err
		}
	}
	if !o.headless && !o.tui {
		go cmd.readCommands(os.Stdin, fe.Quit)
	}
	return fe.Run()
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
