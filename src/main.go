package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"airchord/src/audio"
	"airchord/src/config"
	"airchord/src/gesture"
)

const sockFileName = "/tmp/airchord.sock"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, err := audio.NewEngine(cfg)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer func() {
		if err := engine.Dispose(); err != nil {
			log.Printf("error while disposing engine: %v", err)
		}
	}()
	if err := engine.Start(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	mapper := gesture.NewMapper(engine, cfg)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err = withIPCConnection(ctx, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return engine.Run(ctx)
		})
		g.Go(func() error {
			return receiveFrames(ctx, conn, mapper)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, engine)
		})
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

// receiveFrames consumes perception lines ("frame" followed by two
// hands' fields) and feeds them to the mapper.
func receiveFrames(ctx context.Context, conn net.Conn, mapper *gesture.Mapper) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		fields, err := parseFields(string(line))
		if err != nil {
			return err
		}
		if len(fields) > 0 && fields[0] == "frame" {
			mapper.Update(gesture.ParseFrame(fields[1:]))
		}
		line = []byte{}
	}
	log.Println("receiveFrames() ended.")
	return nil
}

func parseFields(line string) ([]string, error) {
	fields := strings.Split(line, " ")
	for i, item := range fields {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		fields[i] = escaped
	}
	return fields, nil
}

// sendReports streams the analysis tap to the visualizer at 60 Hz:
// a spectrum line with frequency-domain magnitudes and a state line
// with the current cutoff, LFO rate/depth/phase and morph value.
func sendReports(ctx context.Context, conn net.Conn, engine *audio.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			spectrum := engine.Spectrum()
			s := "spectrum"
			for _, value := range spectrum {
				s += " " + strconv.FormatFloat(value, 'f', 6, 64)
			}
			root, extension, quality := engine.Chord()
			state := fmt.Sprintf("state %f %f %f %f %f %d %s %s %t %t",
				engine.CurrentCutoff(),
				engine.LFORate(),
				engine.LFODepth(),
				engine.LFOPhase(),
				engine.Morph(),
				root, extension, quality,
				engine.IsPlaying(), engine.IsSilent(),
			)
			select {
			case <-ctx.Done():
				log.Println("sendReports() interrupted")
				break loop
			default:
				if _, err := conn.Write([]byte(s + "\n" + state + "\n")); err != nil {
					return err
				}
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
