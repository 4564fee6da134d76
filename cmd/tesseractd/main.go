// Package main is the tesseractd CLI: serve the HTTP API, or run one
// compile+execute cycle from the command line for debugging a schema
// file without standing up a server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tesseract/internal/backend"
	_ "tesseract/internal/backend/clickhousebackend"
	_ "tesseract/internal/backend/mysqlbackend"
	_ "tesseract/internal/backend/postgresbackend"
	"tesseract/internal/compiler"
	"tesseract/internal/config"
	"tesseract/internal/httpapi"
	"tesseract/internal/names"
	"tesseract/internal/olaplog"
	"tesseract/internal/query"
	"tesseract/internal/schema"
	"tesseract/internal/schema/tomlschema"
	"tesseract/internal/sqlgen"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tesseractd",
		Short: "OLAP query compilation service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(aggregateCmd())
	rootCmd.AddCommand(membersCmd())
	rootCmd.AddCommand(validateSchemaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadStore(schemaPath string) (*schema.Store, error) {
	sch, err := tomlschema.NewParser().ParseFile(schemaPath)
	if err != nil {
		return nil, err
	}
	return schema.NewStore(sch), nil
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP aggregate/members API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			log := olaplog.New(slog.LevelInfo)

			store, err := loadStore(cfg.SchemaPath)
			if err != nil {
				return fmt.Errorf("load schema: %w", err)
			}

			be, err := backend.Open(cfg.Dialect, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect backend: %w", err)
			}
			defer be.Close()

			srv := &httpapi.Server{
				Store:       store,
				Dialect:     cfg.Dialect,
				Backend:     be,
				JWTSecret:   cfg.JWTSecret,
				FlushSecret: cfg.FlushSecret,
				Log:         log.With("httpapi"),
			}
			srv.OnFlush(func() {
				if fresh, err := tomlschema.NewParser().ParseFile(cfg.SchemaPath); err == nil {
					store.Publish(fresh)
				}
			})

			log.Info(context.Background(), "listening", "addr", cfg.ListenAddr, "dialect", string(cfg.Dialect))
			return http.ListenAndServe(cfg.ListenAddr, httpapi.NewRouter(srv))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TESSERACT_LISTEN_ADDR)")
	return cmd
}

func aggregateCmd() *cobra.Command {
	var schemaPath, dialectName, cubeName, queryString string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Compile and execute one aggregate query",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if schemaPath != "" {
				cfg.SchemaPath = schemaPath
			}
			dialect := cfg.Dialect
			if dialectName != "" {
				dialect = sqlgen.Type(dialectName)
			}

			store, err := loadStore(cfg.SchemaPath)
			if err != nil {
				return err
			}
			vals, err := url.ParseQuery(queryString)
			if err != nil {
				return err
			}
			q, err := query.ParseURLValues(vals)
			if err != nil {
				return err
			}

			c := compiler.NewCompiler(store.Snapshot())
			ir, headers, err := c.Compile(context.Background(), cubeName, q)
			if err != nil {
				return err
			}
			sql, err := sqlgen.Generate(ir, dialect)
			if err != nil {
				return err
			}

			be, err := backend.Open(dialect, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer be.Close()

			result, err := be.Query(context.Background(), sql, headers)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the cube-catalog TOML file")
	cmd.Flags().StringVar(&dialectName, "dialect", "", "mysql | postgres | clickhouse")
	cmd.Flags().StringVar(&cubeName, "cube", "", "cube name")
	cmd.Flags().StringVar(&queryString, "query", "", "URL-encoded query string, e.g. drilldowns=Geo.State&measures=Sales")
	_ = cmd.MarkFlagRequired("cube")
	return cmd
}

func membersCmd() *cobra.Command {
	var schemaPath, cubeName, levelTok string
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Enumerate a level's members",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if schemaPath != "" {
				cfg.SchemaPath = schemaPath
			}
			store, err := loadStore(cfg.SchemaPath)
			if err != nil {
				return err
			}
			level, err := names.ParseLevelName(levelTok)
			if err != nil {
				return err
			}
			sql, headers, err := compiler.MembersSql(store.Snapshot(), cubeName, level)
			if err != nil {
				return err
			}

			be, err := backend.Open(cfg.Dialect, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer be.Close()

			result, err := be.Query(context.Background(), sql, headers)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the cube-catalog TOML file")
	cmd.Flags().StringVar(&cubeName, "cube", "", "cube name")
	cmd.Flags().StringVar(&levelTok, "level", "", "LevelName, e.g. Geo.State")
	_ = cmd.MarkFlagRequired("cube")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func validateSchemaCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "validate-schema <path>",
		Short: "Parse and validate a cube-catalog TOML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := schemaPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("validate-schema: no schema path given")
			}
			start := time.Now()
			sch, err := tomlschema.NewParser().ParseFile(path)
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d cubes validated in %s\n", len(sch.Cubes), time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the cube-catalog TOML file")
	return cmd
}
