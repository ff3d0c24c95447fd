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

package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cayleygraph/gravsearch/inspect"
	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/transform"
)

func newTransformCmd() *cobra.Command {
	var restrict []string
	cmd := &cobra.Command{
		Use:   "transform <query.json>",
		Short: "Type-check a query and rewrite its WHERE clause for a non-reasoning store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := getContext()
			defer cancel()
			conv, store, err := setup()
			if err != nil {
				return err
			}
			q, err := readQuery(conv, args[0])
			if err != nil {
				return err
			}
			// The transformer requires a fully typed query.
			if _, err := inspect.NewRunner(conv, store).Inspect(ctx, q); err != nil {
				return err
			}
			where, err := inspect.RemoveAnnotations(conv, q.Where)
			if err != nil {
				return err
			}
			stripped := *q
			stripped.Where = where
			tr := transform.NewTransformer(conv, store, transform.PhaseLowering, restrict)
			out, err := tr.Transform(ctx, &stripped)
			if err != nil {
				return err
			}
			data, err := sparql.MarshalQuery(out)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&restrict, "restrict", nil,
		"limit inference simulation to these ontologies (internal names)")
	return cmd
}
