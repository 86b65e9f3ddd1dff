package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	optimade "github.com/nholik/go-optimade"
	"github.com/nholik/go-optimade/internal/lowering/elasticq"
	"github.com/nholik/go-optimade/internal/lowering/mongoq"
	"github.com/nholik/go-optimade/internal/lowering/sqlq"
)

var compileBackend string

var compileCmd = &cobra.Command{
	Use:   "compile <filter>",
	Short: "Compile a filter for one backend and print the native query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := optimade.LoadRegistryFile(registryPath, slog.Default())
		if err != nil {
			return err
		}

		compiler := optimade.New(registry)

		query, err := compiler.Compile(cmd.Context(), args[0], compileBackend)
		if err != nil {
			return fmt.Errorf("compilation failed (HTTP %d): %w", optimade.HTTPStatus(err), err)
		}

		rendered, err := renderQuery(query)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileBackend, "backend", "b", optimade.BackendMongo, "target backend (mongo, elastic, memory, sql)")
}

// renderQuery prints the native query in a backend-appropriate form.
func renderQuery(query optimade.NativeQuery) (string, error) {
	switch q := query.(type) {
	case *mongoq.Query:
		data, err := q.JSON()
		if err != nil {
			return "", err
		}
		return string(data), nil

	case *elasticq.Query:
		data, err := q.JSON()
		if err != nil {
			return "", err
		}
		return string(data), nil

	case *sqlq.Query:
		rendered := struct {
			Clause string        `json:"clause"`
			Args   []interface{} `json:"args"`
		}{Clause: q.Clause(), Args: q.Args()}
		data, err := json.Marshal(rendered)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return fmt.Sprintf("compiled for backend %q (no printable form)", query.Backend()), nil
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := optimade.LoadRegistryFile(registryPath, slog.Default())
		if err != nil {
			return err
		}

		compiler := optimade.New(registry)
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(compiler.Backends(), "\n"))
		return nil
	},
}
