// Command mctsdemo plays one game of Connect Four between the parallel
// MCTS strategy and the negamax strategy, for manual exercise of the
// engine end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/viper"

	"github.com/signalnine/mcts/games/connectfour"
	"github.com/signalnine/mcts/match"
	"github.com/signalnine/mcts/mcts"
	"github.com/signalnine/mcts/negamax"
	"github.com/signalnine/mcts/player"
)

var (
	timeout       = flag.Duration("timeout", 500*time.Millisecond, "per-move MCTS time budget")
	explorationC  = flag.Float64("c", 1.41421356, "UCT exploration constant")
	workers       = flag.Int("workers", 4, "MCTS worker count")
	workerBatch   = flag.Int("worker-batch", 8, "playouts between a worker's flush checks")
	minFlush      = flag.Duration("min-flush", 10*time.Millisecond, "minimum gap between a worker's flushes")
	mergerBatch   = flag.Int("merger-batch", 64, "max worker batches applied per merger refresh")
	queueBound    = flag.Int("queue-bound", 256, "worker-to-merger channel capacity")
	negamaxDepth  = flag.Int("negamax-depth", 3, "negamax search depth")
	negamaxTrials = flag.Int("negamax-trials", 20, "negamax leaf rollout count")
	trace         = flag.Bool("trace", false, "dump MCTS candidate stats before each move")
	configPath    = flag.String("config", "", "optional YAML file overriding the flags above")
)

// fileOverrides is the shape of an optional YAML config file; zero-valued
// fields leave the corresponding flag/default untouched.
type fileOverrides struct {
	TimeoutMS          int     `mapstructure:"timeout_ms"`
	C                  float64 `mapstructure:"c"`
	Workers            int     `mapstructure:"workers"`
	WorkerBatchSize    int     `mapstructure:"worker_batch_size"`
	MinFlushIntervalMS int     `mapstructure:"min_flush_interval_ms"`
	MergerBatchSize    int     `mapstructure:"merger_batch_size"`
	MergerQueueBound   int     `mapstructure:"merger_queue_bound"`
	NegamaxMaxDepth    int     `mapstructure:"negamax_max_depth"`
	NegamaxTrials      int     `mapstructure:"negamax_trials"`
}

func loadOverrides(path string) (*fileOverrides, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}
	var fo fileOverrides
	if err := vp.Unmarshal(&fo); err != nil {
		return nil, err
	}
	return &fo, nil
}

func main() {
	flag.Parse()

	mctsParams := mcts.Params{
		Timeout:          *timeout,
		C:                *explorationC,
		Workers:          *workers,
		WorkerBatchSize:  *workerBatch,
		MinFlushInterval: *minFlush,
		MergerBatchSize:  *mergerBatch,
		MergerQueueBound: *queueBound,
	}
	negamaxParams := negamax.Params{MaxDepth: *negamaxDepth, Trials: *negamaxTrials}

	if *configPath != "" {
		fo, err := loadOverrides(*configPath)
		if err != nil {
			log.Fatalf("mctsdemo: reading config: %v", err)
		}
		applyOverrides(&mctsParams, &negamaxParams, fo)
	}
	if *trace {
		mctsParams.Trace = os.Stderr
	}

	rules := connectfour.Rules{}

	mctsStrategy, err := mcts.Create[connectfour.State, connectfour.Move, connectfour.Color](rules, mctsParams)
	if err != nil {
		log.Fatalf("mctsdemo: creating mcts strategy: %v", err)
	}
	defer mctsStrategy.Close()

	negamaxStrategy, err := negamax.Create[connectfour.State, connectfour.Move, connectfour.Color](rules, negamaxParams)
	if err != nil {
		log.Fatalf("mctsdemo: creating negamax strategy: %v", err)
	}

	p0 := player.NewAIPlayer[connectfour.State, connectfour.Move]("MCTS", mctsStrategy)
	p1 := player.NewAIPlayer[connectfour.State, connectfour.Move]("Negamax", negamaxStrategy)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		log.Println("mctsdemo: shutting down...")
		cancel()
	}()
	defer signal.Stop(sig)

	final, result, err := match.Run[connectfour.State, connectfour.Move, connectfour.Color](ctx, rules, p0, p1, connectfour.R)
	if err != nil {
		log.Fatalf("mctsdemo: match failed: %v", err)
	}

	fmt.Println(final.String())
	announce(result)
}

func applyOverrides(mp *mcts.Params, np *negamax.Params, fo *fileOverrides) {
	if fo.TimeoutMS > 0 {
		mp.Timeout = time.Duration(fo.TimeoutMS) * time.Millisecond
	}
	if fo.C > 0 {
		mp.C = fo.C
	}
	if fo.Workers > 0 {
		mp.Workers = fo.Workers
	}
	if fo.WorkerBatchSize > 0 {
		mp.WorkerBatchSize = fo.WorkerBatchSize
	}
	if fo.MinFlushIntervalMS > 0 {
		mp.MinFlushInterval = time.Duration(fo.MinFlushIntervalMS) * time.Millisecond
	}
	if fo.MergerBatchSize > 0 {
		mp.MergerBatchSize = fo.MergerBatchSize
	}
	if fo.MergerQueueBound > 0 {
		mp.MergerQueueBound = fo.MergerQueueBound
	}
	if fo.NegamaxMaxDepth > 0 {
		np.MaxDepth = fo.NegamaxMaxDepth
	}
	if fo.NegamaxTrials > 0 {
		np.Trials = fo.NegamaxTrials
	}
}

func announce(result match.Result[connectfour.Color]) {
	if !result.HasWinner {
		fmt.Println(termenv.String("draw.").Foreground(termenv.ANSIYellow))
		return
	}
	msg := termenv.String(fmt.Sprintf("winner: %s", result.Winner)).Bold()
	if result.Winner == connectfour.R {
		msg = msg.Foreground(termenv.ANSIRed)
	} else {
		msg = msg.Foreground(termenv.ANSIBlue)
	}
	fmt.Println(msg)
}
