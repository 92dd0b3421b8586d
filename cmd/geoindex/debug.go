package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kartspatial/geoindex/internal/codec"
	"github.com/kartspatial/geoindex/internal/crscache"
	"github.com/kartspatial/geoindex/internal/envelope"
	"github.com/kartspatial/geoindex/internal/feature"
	"github.com/kartspatial/geoindex/internal/objectdb"
	"github.com/kartspatial/geoindex/internal/walker"
)

var debugRepoPath string

// debugCmd explains how a particular object is or would be indexed.
// Accepts exactly one of three forms:
//
//	[COMMIT:]DATASET_PATH:FEATURE_OID   - trace how a feature indexes
//	W,S,E,N                              - round-trip an envelope through the codec
//	HEX_ENCODED_ENVELOPE                 - decode a previously stored envelope
var debugCmd = &cobra.Command{
	Use:   "debug ARG",
	Short: "Explain how a particular object is indexed",
	Long: `Usage:
  geoindex debug [COMMIT:]DATASET_PATH:FEATURE_OID
  geoindex debug W,S,E,N
  geoindex debug HEX_ENCODED_ENVELOPE`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := args[0]
		switch {
		case strings.Contains(arg, ":"):
			return debugFeature(cmd, arg)
		case strings.Contains(arg, ","):
			return debugEnvelope(arg)
		case isHex(arg):
			return debugEncodedEnvelope(arg)
		default:
			return fmt.Errorf("unrecognised argument %q; see --help", arg)
		}
	},
}

func init() {
	debugCmd.Flags().StringVar(&debugRepoPath, "repo", ".", "path to the git repository")
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

func debugEnvelope(arg string) error {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return fmt.Errorf("expected W,S,E,N, got %q", arg)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", p, err)
		}
		vals[i] = v
	}
	env := envelope.Envelope{W: vals[0], S: vals[1], E: vals[2], N: vals[3]}
	c := codec.New(codec.DefaultBits)
	encoded := c.Encode(env)
	roundtripped := c.Decode(encoded)
	fmt.Printf("Encoded as %s\n", hex.EncodeToString(encoded))
	fmt.Printf("(which decodes as %+v)\n", roundtripped)
	return nil
}

func debugEncodedEnvelope(arg string) error {
	encoded, err := hex.DecodeString(arg)
	if err != nil {
		return fmt.Errorf("decoding hex envelope: %w", err)
	}
	c := codec.New(codec.InferBits(len(encoded)))
	decoded := c.Decode(encoded)
	fmt.Printf("Encoded as %s\n", arg)
	fmt.Printf("Which decodes as: %+v\n", decoded)
	return nil
}

func debugFeature(cmd *cobra.Command, arg string) error {
	commit := "HEAD"
	rest := arg
	if strings.Count(arg, ":") == 2 {
		parts := strings.SplitN(arg, ":", 2)
		commit, rest = parts[0], parts[1]
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected DATASET_PATH:FEATURE_OID, got %q", rest)
	}
	dsPath, oid := parts[0], parts[1]

	repo, err := objectdb.Open(debugRepoPath)
	if err != nil {
		return err
	}
	resolved, err := repo.ResolveCommits([]string{commit})
	if err != nil {
		return err
	}
	fmt.Printf("Inspecting %s:%s at commit %s\n", dsPath, oid, resolved[0])

	raw, err := repo.Blob(oid)
	if err != nil {
		return err
	}
	blob, err := feature.Decode(oid, raw)
	if err != nil {
		return err
	}

	col := feature.NewColumnIndexer().ColumnFor(blob, "geom")
	if col == feature.NoGeometryColumn {
		fmt.Println("Feature has no geometry column; it cannot be indexed.")
		return nil
	}
	geomBytes, ok := blob.Fields[col].([]byte)
	if !ok {
		fmt.Println("Geometry column did not contain binary geometry data; it cannot be indexed.")
		return nil
	}

	cache, err := crscache.New(repo, func(ctx context.Context, dsPath string) ([]string, error) {
		return walker.CRSOids(ctx, repo.Path(), dsPath)
	})
	if err != nil {
		return err
	}
	transforms, errs := cache.TransformsFor(cmd.Context(), dsPath)
	for _, e := range errs {
		fmt.Printf("Couldn't load a candidate transform: %v\n", e)
	}

	geom := feature.NewGeometry(oid, geomBytes)
	env, skip, traces := envelope.BuildVerbose(geom, transforms)
	for _, t := range traces {
		if t.Err != "" {
			fmt.Printf("Applying transform %s... failed: %s\n", t.Transform, t.Err)
			continue
		}
		fmt.Printf("Applying transform %s... result: %+v\n", t.Transform, t.Envelope)
	}
	if !skip.Empty() {
		fmt.Printf("Skipped indexing feature: %s\n", skip.Reason)
		return nil
	}
	fmt.Printf("Total envelope: %+v\n", env)
	return nil
}
