// Command trackctl is a small client for the emotion tracking service. It
// drives the HTTP API: session control, one-shot detection, analytics reads
// and data management.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/emotrack/internal/adapters/capture"
	"github.com/okian/emotrack/internal/adapters/detect"
	"github.com/okian/emotrack/internal/domain/sampler"
)

const defaultTimeout = 30 * time.Second

var (
	serverURL string
	timeout   time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "trackctl",
		Short:         "Client for the emotion tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "url", "http://localhost:8090", "base URL of the service")
	root.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")

	root.AddCommand(
		newTrackCmd(),
		newDetectCmd(),
		newSummaryCmd(),
		newDailyCmd(),
		newExportCmd(),
		newClearCmd(),
		newStatusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func client() *http.Client {
	return &http.Client{Timeout: timeout}
}

// do sends a request and prints the JSON response body, indented.
func do(method, path string, body io.Reader, contentType string) error {
	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s: %s", resp.Status, string(data))
	}

	var pretty any
	if err := json.Unmarshal(data, &pretty); err != nil {
		fmt.Println(string(data))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Control tracking sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start a tracking session",
			RunE: func(_ *cobra.Command, _ []string) error {
				return do(http.MethodPost, "/track/start", nil, "")
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the active session and flush pending observations",
			RunE: func(_ *cobra.Command, _ []string) error {
				return do(http.MethodPost, "/track/stop", nil, "")
			},
		},
		newTrackRunCmd(),
	)
	return cmd
}

// newTrackRunCmd runs the capture loop on this machine instead of inside the
// daemon: frames are sampled locally, each kept frame goes to the daemon's
// /detect endpoint, and results are batched into POST /observations.
func newTrackRunCmd() *cobra.Command {
	var (
		dir      string
		fps      int
		interval int
		batch    int
		frames   uint64
		token    string
		skipNone bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a local capture loop against the daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var (
				source capture.Source
				err    error
			)
			if dir != "" {
				source, err = capture.NewDirSource(dir, capture.WithDirFPS(fps))
				if err != nil {
					return err
				}
			} else {
				source = capture.NewSyntheticSource(capture.WithFPS(fps), capture.WithFrameLimit(frames))
			}
			defer func() { _ = source.Close() }()

			smp, err := sampler.New(interval)
			if err != nil {
				return err
			}

			det := detect.NewRemoteDetector(serverURL,
				detect.WithToken(token),
				detect.WithHTTPClient(client()),
			)

			var (
				pending  []observationEntry
				written  int
				failures int
			)
			flush := func() error {
				if len(pending) == 0 {
					return nil
				}
				if err := postObservations(pending); err != nil {
					return err
				}
				written += len(pending)
				pending = pending[:0]
				return nil
			}

			for frame := range source.Frames(ctx) {
				if frames > 0 && smp.Seen() >= frames {
					break
				}
				if !smp.Keep() {
					continue
				}

				result, err := det.Detect(ctx, frame.Data)
				if err != nil {
					failures++
					fmt.Fprintln(os.Stderr, "detection failed:", err)
					continue
				}

				label := result.Emotion.String()
				if result.NoFace {
					if skipNone {
						continue
					}
					label = "NO_FACE"
				}
				pending = append(pending, observationEntry{
					Timestamp: float64(frame.CapturedAt.UnixNano()) / float64(time.Second),
					Emotion:   label,
				})
				if len(pending) >= batch {
					if err := flush(); err != nil {
						return err
					}
				}
			}

			if err := flush(); err != nil {
				return err
			}
			fmt.Printf("written %d observations (%d detection failures)\n", written, failures)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "replay image files from a directory instead of synthetic frames")
	cmd.Flags().IntVar(&fps, "fps", 24, "capture rate in frames per second")
	cmd.Flags().IntVar(&interval, "interval", 24, "keep one frame per this many captured frames")
	cmd.Flags().IntVar(&batch, "batch", 60, "observations per POST /observations batch")
	cmd.Flags().Uint64Var(&frames, "frames", 0, "stop after this many captured frames (0 = until interrupted)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token for the daemon")
	cmd.Flags().BoolVar(&skipNone, "skip-no-face", false, "drop NO_FACE observations instead of persisting them")
	return cmd
}

// observationEntry mirrors one element of the POST /observations payload.
type observationEntry struct {
	Timestamp float64 `json:"timestamp"`
	Emotion   string  `json:"emotion"`
}

func postObservations(entries []observationEntry) error {
	payload, err := json.Marshal(map[string]any{"observations": entries})
	if err != nil {
		return err
	}
	resp, err := client().Post(serverURL+"/observations", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(body))
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session's counters",
		RunE: func(_ *cobra.Command, _ []string) error {
			return do(http.MethodGet, "/track/status", nil, "")
		},
	}
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <image>",
		Short: "Run one detection on an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			return do(http.MethodPost, "/detect", f, "image/jpeg")
		},
	}
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the all-time emotion distribution",
		RunE: func(_ *cobra.Command, _ []string) error {
			return do(http.MethodGet, "/observations/summary", nil, "")
		},
	}
}

func newDailyCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show the per-day emotion distribution",
		RunE: func(_ *cobra.Command, _ []string) error {
			return do(http.MethodGet, "/observations/daily?days="+strconv.Itoa(days), nil, "")
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all observations",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := client().Get(serverURL + "/observations/export?format=" + url.QueryEscape(format))
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s: %s", resp.Status, string(data))
			}

			if out == "" {
				fmt.Print(string(data))
				return nil
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format: json or csv")
	cmd.Flags().StringVar(&out, "out", "", "write to file instead of stdout")
	return cmd
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored observation",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			return do(http.MethodDelete, "/observations?confirm=true", nil, "")
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
