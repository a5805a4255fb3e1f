// Command hl7mllp is the CLI shell (C9): it selects client (outbound) or
// server (inbound) mode and wires the session layer to stdin/stdout via
// the JSON codec, for exchanging HL7 v2.x messages with external tools.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhollis/hl7toolkit/jsoncodec"
	"github.com/nhollis/hl7toolkit/mllp"
	"github.com/nhollis/hl7toolkit/parse"
	"github.com/nhollis/hl7toolkit/session"
	"github.com/nhollis/hl7toolkit/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "hl7mllp",
		Short: "Exchange HL7 v2.x messages over MLLP via stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	flags := cmd.Flags()
	flags.String("ip", "", "peer host (outbound) or bind host (inbound); defaults to 0.0.0.0 inbound")
	flags.Int("port", 0, "peer port (outbound) or bind port (inbound, 0 lets the OS assign one)")
	flags.String("filter-policy", "none", "non-printable byte handling before send: none|escape|filter")
	flags.Int("threads", 1, "concurrent peer-handling workers in inbound mode")
	flags.Bool("outbound", false, "act as client: read messages from stdin, send, await ACK")
	flags.Bool("local", false, "bind/connect to 127.0.0.1 instead of the default host")
	flags.Bool("daemon", false, "keep running after the first message instead of exiting")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("HL7MLLP")
	v.AutomaticEnv()

	return cmd
}

// run dispatches to outbound or inbound mode. Protocol data (JSON messages
// in inbound mode) is written to stdout; all logging goes to stderr so the
// two streams never interleave.
func run(v *viper.Viper) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()

	policy, err := parseFilterPolicy(v.GetString("filter-policy"))
	if err != nil {
		logger.Error().Err(err).Msg("invalid --filter-policy")
		return err
	}

	ip := v.GetString("ip")
	switch {
	case v.GetBool("local"):
		ip = "127.0.0.1"
	case ip == "":
		ip = "0.0.0.0"
	}
	port := v.GetInt("port")
	threads := v.GetInt("threads")
	if threads < 1 {
		threads = 1
	}
	daemon := v.GetBool("daemon")

	if v.GetBool("outbound") {
		return runOutbound(ip, port, policy, daemon, logger)
	}
	return runInbound(ip, port, policy, threads, daemon, logger)
}

func parseFilterPolicy(s string) (mllp.FilterPolicy, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return mllp.FilterNone, nil
	case "escape":
		return mllp.FilterEscape, nil
	case "filter":
		return mllp.FilterStrip, nil
	default:
		return mllp.FilterNone, fmt.Errorf("hl7mllp: unknown filter policy %q (want none|escape|filter)", s)
	}
}

// runOutbound reads newline-delimited chunks from stdin, treating each as a
// JSON-encoded Message if it looks like one and falling back to raw flat
// V2 text otherwise, then sends each over one Channel to the configured
// peer. Without --daemon it exits after the first message.
func runOutbound(ip string, port int, policy mllp.FilterPolicy, daemon bool, logger zerolog.Logger) error {
	t, err := transport.Connect(ip, port)
	if err != nil {
		logger.Error().Err(err).Str("peer", fmt.Sprintf("%s:%d", ip, port)).Msg("connect failed")
		return err
	}
	defer t.Close()

	peers := t.ClientIDs()
	if len(peers) == 0 {
		return fmt.Errorf("hl7mllp: no peer registered after connect")
	}
	ch := session.NewChannel(t, peers[0], policy, nil)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), mllp.MaxMessageSize)

	sendTimeout := session.TimeoutSource * time.Duration(session.RetrySource+1)
	sent := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		wire, err := decodeStdinChunk(line)
		if err != nil {
			logger.Warn().Err(err).Msg("unparseable stdin chunk, skipping")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err = ch.SendMessage(ctx, wire)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("send failed")
			continue
		}
		sent++
		logger.Info().Int("sent", sent).Msg("message acknowledged")
		if !daemon {
			break
		}
	}
	return scanner.Err()
}

// decodeStdinChunk accepts either a JSON Message document or a raw flat
// V2 message and returns the message's flat wire-form bytes to send.
func decodeStdinChunk(line string) ([]byte, error) {
	if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "{") {
		if msg, err := jsoncodec.Unmarshal([]byte(trimmed)); err == nil {
			return msg.Bytes(), nil
		}
	}
	msg, err := parse.New().Parse([]byte(line))
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// runInbound listens for connections and, per accepted peer, repeatedly
// receives a message, parses it, prints it to stdout as JSON, and replies
// ACK on success or NAK on parse failure — never terminating the loop on a
// bad message (§7 policy). Up to threads peers are served concurrently.
func runInbound(ip string, port int, policy mllp.FilterPolicy, threads int, daemon bool, logger zerolog.Logger) error {
	t, err := transport.Listen(ip, port)
	if err != nil {
		logger.Error().Err(err).Msg("listen failed")
		return err
	}
	defer t.Close()
	t.Start()
	logger.Info().Str("addr", t.AddressInfo()).Msg("listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sem := make(chan struct{}, threads)
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	var processed int64

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-ticker.C:
			if !daemon && atomic.LoadInt64(&processed) > 0 {
				stop()
				wg.Wait()
				return nil
			}
			for _, peer := range t.ClientIDs() {
				mu.Lock()
				already := seen[peer]
				seen[peer] = true
				mu.Unlock()
				if already {
					continue
				}

				peer := peer
				wg.Add(1)
				go func() {
					defer wg.Done()
					sem <- struct{}{}
					defer func() { <-sem }()
					servePeer(ctx, t, peer, policy, logger, daemon, &processed)
				}()
			}
		}
	}
}

// servePeer drives one peer's destination-path session loop until the
// context is canceled, the peer's receive times out, or (without
// --daemon) after its first message.
func servePeer(ctx context.Context, t *transport.Transport, peer string, policy mllp.FilterPolicy, logger zerolog.Logger, daemon bool, processed *int64) {
	ch := session.NewChannel(t, peer, policy, nil)
	log := logger.With().Str("peer", peer).Logger()

	for {
		payload, err := ch.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Warn().Err(err).Msg("receive ended")
			return
		}

		msg, err := parse.New().Parse(payload)
		if err != nil {
			log.Warn().Err(err).Msg("parse failed, sending NAK")
			if nakErr := ch.Nak(); nakErr != nil {
				log.Error().Err(nakErr).Msg("failed to send NAK")
			}
			continue
		}

		data, err := jsoncodec.Marshal(msg)
		if err != nil {
			log.Error().Err(err).Msg("json encode failed")
			continue
		}
		fmt.Println(string(data))

		if err := ch.Ack(); err != nil {
			log.Error().Err(err).Msg("failed to send ACK")
		}
		atomic.AddInt64(processed, 1)
		if !daemon {
			return
		}
	}
}
