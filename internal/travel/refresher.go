// Refresher is the scheduled job keeping travel states current and waking up travel subscribers.

package travel

import (
	"Waitingway/internal/config"
	"Waitingway/internal/entity"
	"Waitingway/internal/metrics"
	"Waitingway/internal/world"
	"Waitingway/pkg/log"
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Publisher delivers an endpoint publish to its subscribers.
type Publisher interface {
	Publish(ctx context.Context, data *entity.EndpointPublish) error
}

// Longest connector output line accepted.
const maxLineSize = 1 << 20

// Refresher implements cron.Job.
type Refresher struct {
	cfg       config.TravelConfig
	launcher  Launcher
	repo      Repository
	catalog   *world.Catalog
	publisher Publisher
	metrics   *metrics.Metrics
	logger    log.Logger
}

func NewRefresher(cfg config.TravelConfig, launcher Launcher, repo Repository, catalog *world.Catalog, publisher Publisher, m *metrics.Metrics, logger log.Logger) *Refresher {
	return &Refresher{
		cfg:       cfg,
		launcher:  launcher,
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With("job", "refresh_travel_states"),
	}
}

func (r *Refresher) Name() string           { return "refresh_travel_states" }
func (r *Refresher) Period() time.Duration  { return r.cfg.Period }
func (r *Refresher) Timeout() time.Duration { return r.cfg.Timeout }

// Run performs one refresh pass: read the feed, persist the snapshot, then publish open worlds.
// Nothing is persisted or published unless the whole feed was read successfully.
func (r *Refresher) Run(ctx context.Context) error {
	args := r.args()
	r.logger.Debug().Strs("args", redact(args)).Msg("Launching connector")
	proc, err := r.launcher.Start(ctx, r.cfg.ConnectorPath, args)
	if err != nil {
		return err
	}

	merged, err := r.consume(ctx, proc)
	if err != nil {
		return err
	}
	if len(merged.states) == 0 {
		return errors.New("No data")
	}

	prohibited := merged.prohibited()
	event := r.logger.Info().Int("worlds", len(merged.states)).Interface("prohibited", prohibited)
	if merged.travelTime != nil {
		event = event.Int32("travel_time", *merged.travelTime)
	}
	event.Msg("Travel states refreshed")

	if err := r.repo.InsertSnapshot(ctx, r.logger, merged.sorted(), merged.travelTime); err != nil {
		return err
	}
	r.metrics.TravelWorldsProhibited.Set(float64(len(prohibited)))
	if merged.travelTime != nil {
		r.metrics.TravelTimeSeconds.Set(float64(*merged.travelTime))
	}

	r.publish(ctx, merged)
	return nil
}

// Helper assembling the connector command line.
func (r *Refresher) args() []string {
	args := append([]string(nil), r.cfg.LobbyHosts...)
	return append(args,
		"--version-file", r.cfg.VersionFile,
		"-u", r.cfg.Username,
		"-p", r.cfg.Password,
		"--uid-cache", r.cfg.UIDCachePath,
		"--uid-ttl", strconv.Itoa(r.cfg.UIDCacheTTL),
		"--dc-token-cache", r.cfg.DCTokenCachePath,
		"--dc-token-ttl", strconv.Itoa(r.cfg.DCTokenCacheTTL),
	)
}

// Returns args with the value of every credential flag masked.
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "-u" || out[i] == "-p" {
			out[i+1] = "***"
			i++
		}
	}
	return out
}

type outputLine struct {
	stderr bool
	text   string
	// Set when the stream could not be read, text is empty then
	err error
}

// Helper streaming both connector outputs into one channel, closed once both hit EOF.
func streamLines(proc Process) <-chan outputLine {
	lines := make(chan outputLine)
	var wg sync.WaitGroup
	read := func(rd io.Reader, stderr bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			lines <- outputLine{stderr: stderr, text: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			lines <- outputLine{stderr: stderr, err: errors.Wrap(err, "reading connector output")}
			// Keep the pipe flowing so the connector never blocks on a full buffer
			_, _ = io.Copy(io.Discard, rd)
		}
	}
	wg.Add(2)
	go read(proc.Stdout(), false)
	go read(proc.Stderr(), true)
	go func() {
		wg.Wait()
		close(lines)
	}()
	return lines
}

// Reads the whole feed into a merge map.
// On cancellation or a bad line the connector is killed and its remaining output logged before returning.
func (r *Refresher) consume(ctx context.Context, proc Process) (*mergeMap, error) {
	merged := newMergeMap(r.logger)
	lines := streamLines(proc)
	for {
		select {
		case <-ctx.Done():
			r.abort(proc, lines)
			return nil, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := proc.Wait(); err != nil {
					return nil, err
				}
				return merged, nil
			}
			if err := r.handleLine(line, merged); err != nil {
				r.abort(proc, lines)
				return nil, err
			}
		}
	}
}

// Helper killing the connector and logging whatever it still printed.
func (r *Refresher) abort(proc Process, lines <-chan outputLine) {
	if err := proc.Kill(); err != nil {
		r.logger.Warn().Err(err).Msg("Couldn't kill connector")
	}
	for line := range lines {
		if line.err != nil {
			r.logger.Warn().Err(line.err).Bool("stderr", line.stderr).Msg("Connector output unreadable")
			continue
		}
		r.logger.Warn().Bool("stderr", line.stderr).Str("source", "connector").Msg(line.text)
	}
	if err := proc.Wait(); err != nil {
		r.logger.Debug().Err(err).Msg("Connector stopped")
	}
}

func (r *Refresher) handleLine(line outputLine, merged *mergeMap) error {
	if line.err != nil {
		return line.err
	}
	text := strings.TrimSpace(line.text)
	if text == "" {
		return nil
	}
	if line.stderr {
		r.logger.Warn().Str("source", "connector").Msg(text)
		return nil
	}
	if strings.HasPrefix(text, "{") {
		resp, err := decodeResponse(text)
		if err != nil {
			return err
		}
		return merged.merge(resp, r.cfg.ProhibitedErrCode, r.catalog.Worlds())
	}
	if level, msg, ok := parseLevelLine(text); ok {
		logConnectorLine(r.logger, level, msg)
		return nil
	}
	r.logger.Info().Str("source", "connector").Msg(text)
	return nil
}

// Publishes every open world, preceded by its datacenter the first time the datacenter is seen open.
// Delivery failures are logged, the pass is already committed.
func (r *Refresher) publish(ctx context.Context, merged *mergeMap) {
	publishedDCs := make(map[uint16]bool)
	for _, s := range merged.sorted() {
		if !s.Allowed() {
			continue
		}
		w, ok := r.catalog.World(s.WorldID)
		if !ok || w.Hidden {
			continue
		}
		if ctx.Err() != nil {
			r.logger.Warn().Msg("Publishing interrupted")
			return
		}
		if !publishedDCs[w.DatacenterID] {
			publishedDCs[w.DatacenterID] = true
			if dc, ok := r.catalog.Datacenter(w.DatacenterID); ok {
				r.publishOne(ctx, entity.DatacenterPublish(dc, datacenterWorlds(dc, merged)))
			}
		}
		r.publishOne(ctx, entity.WorldPublish(w))
	}
}

func (r *Refresher) publishOne(ctx context.Context, data *entity.EndpointPublish) {
	if err := r.publisher.Publish(ctx, data); err != nil {
		r.logger.Error().Err(err).Str("endpoint", data.Endpoint.String()).Msg("Publish failed")
	}
}

// Returns the observed travel status of every world in dc.
func datacenterWorlds(dc entity.Datacenter, merged *mergeMap) []entity.WorldTravel {
	worlds := make([]entity.WorldTravel, 0, len(dc.Worlds))
	for _, w := range dc.Worlds {
		s, ok := merged.states[w.ID]
		if !ok {
			continue
		}
		worlds = append(worlds, entity.WorldTravel{World: w, Prohibited: !s.Allowed()})
	}
	return worlds
}
