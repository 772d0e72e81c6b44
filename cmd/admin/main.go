// Command admin wraps the partitioning, consensus, downsampling and stats
// operations directly, with no logic of its own beyond argument parsing.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/rawblock/nicefield/internal/numeric"
	"github.com/rawblock/nicefield/internal/partition"
	"github.com/rawblock/nicefield/internal/scheduler"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	dbURL := requireEnv("DATABASE_URL")
	ctx := context.Background()

	st, err := store.Connect(ctx, dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer st.Close()
	if err := st.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	switch os.Args[1] {
	case "partition":
		runPartition(ctx, st, os.Args[2:])
	case "consensus":
		runConsensus(ctx, st)
	case "downsample":
		runDownsample(ctx, st)
	case "stats":
		runStats(ctx, st, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command> [args]

commands:
  partition <base...>   derive the valid range for each base, break it into
                         fields, group fields into chunks, and persist all
                         three
  consensus              run the consensus engine once over every field
                         with a qualified detailed submission
  downsample             run the downsampling roll-up once over every
                         base's chunks and the base itself
  stats <base>           print a base's cached rollup stats`)
}

// runPartition derives the valid range for each requested base (the b mod 5
// case analysis), breaks it into fields of partition.DefaultFieldSize,
// groups those fields into at most partition.TargetNumChunks chunks, and
// persists bases/fields/chunks before reassigning each field's chunk_id.
func runPartition(ctx context.Context, st *store.Store, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "partition requires at least one base argument")
		os.Exit(1)
	}
	for _, arg := range args {
		baseN, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			log.Error().Str("arg", arg).Msg("not a valid base, skipping")
			continue
		}
		base := uint32(baseN)

		r := numeric.DeriveBaseRange(base)
		if r.Empty {
			log.Info().Uint32("base", base).Msg("base has no valid range (b mod 5 == 1 case), skipping")
			continue
		}

		rangeSize := new(big.Int).Sub(r.End, r.Start)
		if err := st.InsertBase(ctx, base, r.Start.String(), r.End.String(), rangeSize.String()); err != nil {
			log.Error().Err(err).Uint32("base", base).Msg("failed to insert base")
			continue
		}

		fields := partition.BreakRangeIntoFields(r.Start, r.End, partition.DefaultFieldSize)
		if err := st.InsertFields(ctx, base, fields); err != nil {
			log.Error().Err(err).Uint32("base", base).Msg("failed to insert fields")
			continue
		}

		bounds := partition.GroupFieldsIntoChunks(len(fields))
		if _, err := st.InsertChunks(ctx, base, bounds, fields); err != nil {
			log.Error().Err(err).Uint32("base", base).Msg("failed to insert chunks")
			continue
		}

		if err := st.ReassignFieldsToChunks(ctx, base); err != nil {
			log.Error().Err(err).Uint32("base", base).Msg("failed to reassign fields to chunks")
			continue
		}

		log.Info().Uint32("base", base).Int("fields", len(fields)).Int("chunks", len(bounds)).
			Msg("base partitioned")
	}
}

// runConsensus runs the consensus engine once, synchronously, over every
// field with a qualified detailed submission — the same sweep the daemon
// runs on an interval, exposed here for a catch-up run.
func runConsensus(ctx context.Context, st *store.Store) {
	runner := scheduler.NewRunner(st, 0, 0)
	if err := runner.RunConsensusSweep(ctx); err != nil {
		log.Fatal().Err(err).Msg("consensus sweep failed")
	}
	log.Info().Msg("consensus sweep complete")
}

// runDownsample runs the downsampling roll-up once, synchronously, over
// every base.
func runDownsample(ctx context.Context, st *store.Store) {
	runner := scheduler.NewRunner(st, 0, 0)
	if err := runner.RunDownsampleSweep(ctx); err != nil {
		log.Fatal().Err(err).Msg("downsample sweep failed")
	}
	log.Info().Msg("downsample sweep complete")
}

// runStats prints a base's cached rollup stats (progress report).
func runStats(ctx context.Context, st *store.Store, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "stats requires exactly one base argument")
		os.Exit(1)
	}
	baseN, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		log.Fatal().Str("arg", args[0]).Msg("not a valid base")
	}
	b, err := st.GetBase(ctx, uint32(baseN))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load base")
	}
	fmt.Printf("base %d: range [%s, %s) size %s\n", b.Base, b.RangeStart, b.RangeEnd, b.RangeSize)
	fmt.Printf("  checked_niceonly=%s checked_detailed=%s minimum_cl=%d\n",
		b.CheckedNiceonly, b.CheckedDetailed, b.MinimumCL)
	fmt.Printf("  niceness_mean=%.6f niceness_stdev=%.6f\n", b.NicenessMean, b.NicenessStdev)
	fmt.Printf("  distribution buckets=%d numbers=%d\n", len(b.Distribution), len(b.Numbers))
}

func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatal().Str("var", key).Msg("required environment variable is not set")
	}
	return val
}
