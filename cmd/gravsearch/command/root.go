// Copyright 2023 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package command implements the gravsearch command line tool.
package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/gravsearch/clog"
	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/ontology"
	"github.com/cayleygraph/gravsearch/sparql"
)

const (
	keyAPIHost    = "api.host"
	keyOntologies = "ontologies"

	defaultAPIHost = "api.knora.org"
)

// Filled in by `go build -ldflags="-X ...command.Version=<ver>"`.
var Version string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gravsearch",
		Short:         "Type-check and rewrite Gravsearch queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("api-host", defaultAPIHost, "host that serves the project ontologies")
	cmd.PersistentFlags().StringSlice("ontology", nil, "JSON-LD ontology file (may be given multiple times)")
	viper.BindPFlag(keyAPIHost, cmd.PersistentFlags().Lookup("api-host"))
	viper.BindPFlag(keyOntologies, cmd.PersistentFlags().Lookup("ontology"))
	// glog flags (-v, -logtostderr, ...) for clog verbosity.
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cmd.AddCommand(
		newInspectCmd(),
		newTransformCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	viper.SetEnvPrefix("gravsearch")
	viper.AutomaticEnv()
	if err := rootCmd().Execute(); err != nil {
		clog.Errorf("%v", err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the gravsearch tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := Version
			if v == "" {
				v = "devel"
			}
			fmt.Println("gravsearch", v)
			return nil
		},
	}
}

func getContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		select {
		case <-ch:
		case <-ctx.Done():
		}
		signal.Stop(ch)
		cancel()
	}()
	return ctx, cancel
}

// setup builds the converter and loads the configured ontology files into an
// in-memory metadata store.
func setup() (*iri.Converter, *ontology.MemStore, error) {
	conv, err := iri.NewConverter(viper.GetString(keyAPIHost))
	if err != nil {
		return nil, nil, err
	}
	store := ontology.NewMemStore(conv)
	for _, path := range viper.GetStringSlice(keyOntologies) {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		err = store.ReadJSONLD(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("loading ontology %s: %w", path, err)
		}
		if clog.V(1) {
			clog.Infof("loaded ontology file %s", path)
		}
	}
	return conv, store, nil
}

// readQuery decodes the JSON interchange form of a query from a file, or
// from stdin if name is "-".
func readQuery(conv *iri.Converter, name string) (*sparql.ConstructQuery, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, err
	}
	return sparql.NewDecoder(conv).UnmarshalQuery(data)
}
