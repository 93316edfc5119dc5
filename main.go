// Command motion.stream runs the motion capture streaming service: a
// camera-driven (or replayed) motion pipeline streaming VMC over UDP, a
// peripheral blendshape ingest listener, and an HTTP control API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mocap-data/motion.stream/internal/api"
	"github.com/mocap-data/motion.stream/internal/db"
	"github.com/mocap-data/motion.stream/internal/ingest"
	"github.com/mocap-data/motion.stream/internal/pipeline"
	"github.com/mocap-data/motion.stream/internal/vmc"
)

var (
	listen       = flag.String("listen", ":8800", "Control API listen address")
	dbFile       = flag.String("db", "motion_stream.db", "Path to the entity database")
	vmcHost      = flag.String("vmc-host", "127.0.0.1", "VMC receiver host")
	vmcPort      = flag.Int("vmc-port", vmc.DefaultPort, "VMC receiver port")
	ingestListen = flag.String("ingest-listen", fmt.Sprintf(":%d", ingest.DefaultUDPPort), "Peripheral ingest UDP listen address")
	serialPort   = flag.String("ingest-serial", "", "Optional serial device for peripheral ingest (e.g. /dev/ttyUSB0)")
	serialBaud   = flag.Int("ingest-baud", 115200, "Baud rate for serial ingest")
	cameraIndex  = flag.Int("camera", 0, "Camera device index")
	fps          = flag.Int("fps", 30, "Target streaming frame rate")
	autoStart    = flag.Bool("auto-start", false, "Start the pipeline immediately instead of waiting for the API")
)

func main() {
	flag.Parse()

	store, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	blendshapes := ingest.NewStore()
	sender := vmc.NewSender(*vmcHost, *vmcPort)

	// Tracker integrations (pose, hands, face detectors) plug in here;
	// without them the pipeline still paces, merges peripheral
	// blendshapes and streams.
	pipe, err := pipeline.NewController(pipeline.ControllerConfig{
		Config: pipeline.Config{
			CameraIndex:     *cameraIndex,
			TargetFrameRate: *fps,
			SenderHost:      *vmcHost,
			SenderPort:      *vmcPort,
			Features:        pipeline.AllFeatures(),
		},
		Sender: sender,
		Ingest: blendshapes,
	})
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		source := ingest.NewUDPSource(ingest.UDPSourceConfig{
			Address: *ingestListen,
			Store:   blendshapes,
		})
		if err := source.Start(ctx); err != nil {
			log.Printf("[Ingest] UDP source exited: %v", err)
		}
	}()

	if *serialPort != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			source := ingest.NewSerialSource(*serialPort, *serialBaud, blendshapes)
			if err := source.Start(ctx); err != nil {
				log.Printf("[Ingest] serial source exited: %v", err)
			}
		}()
	}

	if *autoStart {
		if err := pipe.Start(); err != nil {
			log.Fatalf("failed to start pipeline: %v", err)
		}
	}

	server := &http.Server{
		Addr:    *listen,
		Handler: api.NewServer(pipe, store).Routes(),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("[API] listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[API] server exited: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	pipe.Stop()
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("[API] shutdown failed: %v", err)
	}
	wg.Wait()
}
