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
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <query.json>",
		Short: "Run type inspection on a query and print the resolved type of every entity",
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
			result, err := inspect.NewRunner(conv, store).Inspect(ctx, q)
			if err != nil {
				return err
			}
			for _, e := range result.Entities() {
				t, _ := result.TypeOf(e)
				fmt.Printf("%s\t%s\n", e, t)
			}
			return nil
		},
	}
}
