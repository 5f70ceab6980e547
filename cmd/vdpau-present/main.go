package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	vdpaudriver "github.com/rexxster/vdpau-driver"
	"github.com/rexxster/vdpau-driver/buffer"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/rexxster/vdpau-driver/vdpau/fakedevice"
	"github.com/rexxster/vdpau-driver/x11"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	surfaces := pflag.Int("surfaces", vdpaudriver.DefaultConfig().MaxOutputSurfaces, "the amount of output surfaces in the presentation ring")
	frames := pflag.Int("frames", 8, "the amount of frames to present")
	width := pflag.Uint32("width", 640, "the picture width")
	height := pflag.Uint32("height", 480, "the picture height")
	useFake := pflag.Bool("fake", false, "use an in-memory VDPAU device and display instead of libvdpau and libX11")
	drawableFlag := pflag.Uint64("drawable", 0, "the X11 window to present to")
	maxBufferSize := pflag.String("max-buffer-size", humanize.IBytes(vdpaudriver.DefaultConfig().MaxBufferSize), "the maximal size of a single buffer (0 means unbounded)")
	reuseBufferMemory := pflag.Bool("reuse-buffer-memory", vdpaudriver.DefaultConfig().ReuseBufferMemory, "recycle the memory of destroyed buffers")
	statsInterval := pflag.Duration("stats-interval", time.Second, "how often to print the statistics")
	pflag.Parse()
	if len(pflag.Args()) != 0 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg := vdpaudriver.DefaultConfig()
	cfg.MaxOutputSurfaces = *surfaces
	bufferSize, err := humanize.ParseBytes(*maxBufferSize)
	if err != nil {
		l.Fatal(fmt.Errorf("unable to parse the buffer size '%s': %w", *maxBufferSize, err))
	}
	cfg.MaxBufferSize = bufferSize
	cfg.ReuseBufferMemory = *reuseBufferMemory

	drawable := vdpau.Drawable(*drawableFlag)
	var b *backend
	if *useFake {
		b = newFakeBackend(x11.Size{Width: *width, Height: *height})
		if drawable == 0 {
			drawable = 0x1
		}
	} else {
		if drawable == 0 {
			l.Fatal("--drawable is required unless --fake is set")
		}
		b, err = newNativeBackend(ctx)
		if err != nil {
			l.Fatal(err)
		}
	}
	defer b.Close()

	driver, err := vdpaudriver.NewDriver(ctx, b.Device, b.Display, &payloadCounter{}, cfg)
	if err != nil {
		l.Fatal(err)
	}
	defer driver.Terminate(ctx)

	var slots []string
	driver.SetOnFrameDisplayed(func(ctx context.Context, frame vdpaudriver.FrameDisplayed) {
		logger.Debugf(ctx, "displayed on slot #%d (%s)", frame.Slot, frame.OutputSurface)
		slots = append(slots, fmt.Sprint(frame.Slot))
	})

	printStats := func() {
		statsJSON, err := json.Marshal(driver.Stats(ctx))
		if err != nil {
			l.Fatal(err)
		}
		fmt.Printf("stats:%s\n", statsJSON)
	}
	observability.Go(ctx, func(ctx context.Context) {
		t := time.NewTicker(*statsInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				printStats()
			}
		}
	})

	if err := present(ctx, driver, drawable, *width, *height, *frames); err != nil {
		l.Errorf("presentation failed (VA status %s): %v", vastatus.FromError(err), err)
	}
	fmt.Printf("slots:[%s]\n", strings.Join(slots, ","))
	printStats()
}

func present(
	ctx context.Context,
	driver *vdpaudriver.Driver,
	drawable vdpau.Drawable,
	width uint32,
	height uint32,
	frames int,
) error {
	surfaces, err := driver.CreateSurfaces(ctx, width, height, 2)
	if err != nil {
		return fmt.Errorf("unable to create surfaces: %w", err)
	}
	contextID, err := driver.CreateContext(ctx, handle.OffsetConfig, width, height, surfaces...)
	if err != nil {
		return fmt.Errorf("unable to create a context: %w", err)
	}

	rect := vdpaudriver.Rectangle{Width: uint16(width), Height: uint16(height)}
	payload := make([]byte, 4096)
	for frame := 0; frame < frames; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		surfaceID := surfaces[frame%len(surfaces)]
		if err := driver.SyncSurface(ctx, surfaceID); err != nil {
			return fmt.Errorf("unable to sync surface %#x: %w", surfaceID, err)
		}

		for idx := range payload {
			payload[idx] = byte(frame + idx)
		}
		sliceID, err := driver.CreateBuffer(ctx, contextID, buffer.TypeSliceData, uint32(len(payload)), 1, payload)
		if err != nil {
			return fmt.Errorf("unable to create the slice buffer of frame #%d: %w", frame, err)
		}
		if err := driver.BeginPicture(ctx, contextID, surfaceID); err != nil {
			return fmt.Errorf("frame #%d: %w", frame, err)
		}
		if err := driver.RenderPicture(ctx, contextID, sliceID); err != nil {
			return fmt.Errorf("frame #%d: %w", frame, err)
		}
		if err := driver.EndPicture(ctx, contextID); err != nil {
			return fmt.Errorf("frame #%d: %w", frame, err)
		}
		if err := driver.PutSurface(ctx, surfaceID, drawable, rect, rect, nil, 0); err != nil {
			return fmt.Errorf("unable to present frame #%d: %w", frame, err)
		}
	}
	return nil
}

// payloadCounter is a PictureDecoder that only accounts the picture data.
type payloadCounter struct {
	Bytes uint64
}

var _ vdpaudriver.PictureDecoder = (*payloadCounter)(nil)

func (c *payloadCounter) BeginPicture(ctx context.Context, pic vdpaudriver.Picture) error {
	return nil
}

func (c *payloadCounter) DecodeBuffer(ctx context.Context, pic vdpaudriver.Picture, buf *buffer.Object) error {
	payload := buf.Payload()
	c.Bytes += uint64(len(payload))
	logger.Tracef(ctx, "surface %#x: %s buffer of %s", pic.Surface, buf.Type, humanize.IBytes(uint64(len(payload))))
	return nil
}

func (c *payloadCounter) EndPicture(ctx context.Context, pic vdpaudriver.Picture) error {
	logger.Debugf(ctx, "surface %#x: %s of picture data so far", pic.Surface, humanize.IBytes(c.Bytes))
	return nil
}

type backend struct {
	Device  vdpau.Device
	Display x11.Display
	closers []func() error
}

func (b *backend) Close() {
	for idx := len(b.closers) - 1; idx >= 0; idx-- {
		if err := b.closers[idx](); err != nil {
			logger.Default().Errorf("unable to close the backend: %v", err)
		}
	}
}

func newFakeBackend(drawableSize x11.Size) *backend {
	display := x11.NewStatic(x11.Size{Width: 1920, Height: 1080})
	display.DefaultDrawableSize = drawableSize
	device := fakedevice.New()
	device.BlockFn = func(vdpau.PresentationQueue, vdpau.OutputSurface) (vdpau.Time, vdpau.Status) {
		// a 60Hz display
		time.Sleep(time.Second / 60)
		return 0, vdpau.StatusOK
	}
	return &backend{Device: device, Display: display}
}
