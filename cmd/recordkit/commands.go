package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/config"
	"github.com/syssam/recordkit/dialect"
	dsql "github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/model"
	"github.com/syssam/recordkit/query"
	"github.com/syssam/recordkit/repository"
)

// comparators are tried in order, so two-character operators come first.
var comparators = []string{">=", "<=", "!=", "<>", "=", ">", "<"}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "recordkit",
		Short:        "Render and run SQL statements",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	root.AddCommand(newRenderCmd(), newExecCmd(), newGetCmd())
	return root
}

type renderOptions struct {
	table   string
	action  string
	keys    []string
	selects []string
	where   []string
	or      bool
	values  []string
	order   string
	limit   int
	offset  int
	dialect string
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a statement without a database connection",
		Long: `Render a statement without a database connection.

Without --dialect values are quoted with the debug-unsafe strategy, which is
not safe against injection. With --dialect the dialect's own quoting is used.`,
		Example: `  recordkit render --table user --where id=1
  recordkit render --table user --action update --key id --set id=1 --set name=alice
  recordkit render --table user --select "count(*)" --where "age>=18" --order name:desc --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stmt, err := render(opts)
			if err != nil {
				return err
			}
			if stmt == "" {
				return recordkit.ErrEmptyStatement
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.table, "table", "t", "", "table name")
	f.StringVarP(&opts.action, "action", "a", string(query.Select), "select, insert, update or delete")
	f.StringSliceVarP(&opts.keys, "key", "k", nil, "key columns, several for a combined key")
	f.StringSliceVar(&opts.selects, "select", nil, "select entries; aggregates and * pass through")
	f.StringArrayVarP(&opts.where, "where", "w", nil, "condition as key<op>value, repeatable")
	f.BoolVar(&opts.or, "or", false, "combine --where conditions with OR")
	f.StringArrayVar(&opts.values, "set", nil, "value as key=value, repeatable")
	f.StringVar(&opts.order, "order", "", "order as key or key:desc")
	f.IntVar(&opts.limit, "limit", 0, "limit")
	f.IntVar(&opts.offset, "offset", 0, "offset")
	f.StringVar(&opts.dialect, "dialect", "", "quote for mysql, sqlite or postgres")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func render(opts renderOptions) (string, error) {
	var (
		quoter   dialect.Quoter
		strategy = query.DebugUnsafe
	)
	if opts.dialect != "" {
		quoter, strategy = dsql.NewDriver(opts.dialect, nil), query.Live
	}
	q := query.New(quoter, strategy).SetTableName(opts.table).SetTableKey(opts.keys...)
	if err := q.SetAction(query.Action(strings.ToLower(opts.action))); err != nil {
		return "", err
	}
	if len(opts.selects) > 0 {
		q.Select(query.PassthroughAll(opts.selects...)...)
	}
	if len(opts.where) > 0 {
		triples, err := parseConditions(opts.where)
		if err != nil {
			return "", err
		}
		if opts.or {
			q.Where(q.BuildOrSet(triples...))
		} else {
			q.Where(q.BuildAndSet(triples...))
		}
	}
	for _, v := range opts.values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return "", fmt.Errorf("invalid --set %q, want key=value", v)
		}
		q.AddValue(key, value)
	}
	if opts.order != "" {
		key, dir, _ := strings.Cut(opts.order, ":")
		q.OrderBy(key, query.Direction(strings.ToUpper(dir)))
	}
	q.LimitOffset(opts.limit, opts.offset)
	return q.String(), nil
}

func parseConditions(where []string) ([]query.Triple, error) {
	triples := make([]query.Triple, 0, len(where))
	for _, w := range where {
		t, err := parseCondition(w)
		if err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	return triples, nil
}

func parseCondition(s string) (query.Triple, error) {
	for _, op := range comparators {
		if key, value, ok := strings.Cut(s, op); ok && key != "" {
			t := query.Triple{Key: strings.TrimSpace(key), Comparator: op, Value: strings.TrimSpace(value)}
			if strings.EqualFold(t.Value.(string), "null") {
				t.Value = nil
				if op == "=" {
					t.Comparator = "IS"
				} else {
					t.Comparator = "IS NOT"
				}
			}
			return t, nil
		}
	}
	return query.Triple{}, fmt.Errorf("invalid --where %q, want key<op>value", s)
}

func newExecCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "exec <statement>",
		Short: "Execute a statement against the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			conn, err := config.Open(cfg, slog.Default())
			if err != nil {
				return err
			}
			defer conn.Close()

			rows, err := conn.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			all, err := rows.FetchAll()
			if err != nil {
				return err
			}
			if err := printRows(cmd.OutOrStdout(), all, rows.RowsAffected()); err != nil {
				return err
			}
			if conn.Stats != nil {
				slog.Debug("statement stats", "stats", conn.Stats.Stats().String())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "recordkit.yaml", "configuration file")
	return cmd
}

type getOptions struct {
	config string
	table  string
	keys   []string
	where  []string
	or     bool
	order  string
	limit  int
	offset int
	count  bool
}

func newGetCmd() *cobra.Command {
	var opts getOptions
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read rows of a table through a repository",
		Long: `Read rows of a table through a repository.

The configured quoting strategy and select cache apply.`,
		Example: `  recordkit get -c recordkit.yaml --table user --where role=admin --order name:desc
  recordkit get -c recordkit.yaml --table account_role --key account_id --key role_id --count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.config)
			if err != nil {
				return err
			}
			conn, err := config.Open(cfg, slog.Default())
			if err != nil {
				return err
			}
			defer conn.Close()
			return get(cmd.Context(), cmd.OutOrStdout(), conn, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "recordkit.yaml", "configuration file")
	f.StringVarP(&opts.table, "table", "t", "", "table name")
	f.StringSliceVarP(&opts.keys, "key", "k", []string{"id"}, "key columns, several for a combined key")
	f.StringArrayVarP(&opts.where, "where", "w", nil, "condition as key<op>value, repeatable")
	f.BoolVar(&opts.or, "or", false, "combine --where conditions with OR")
	f.StringVar(&opts.order, "order", "", "order as key or key:desc")
	f.IntVar(&opts.limit, "limit", 0, "limit")
	f.IntVar(&opts.offset, "offset", 0, "offset")
	f.BoolVar(&opts.count, "count", false, "print the number of matching rows")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func get(ctx context.Context, w io.Writer, conn *config.Conn, opts getOptions) error {
	if len(opts.keys) == 0 {
		return fmt.Errorf("at least one --key column is required")
	}
	key := model.SingleKey(opts.keys[0])
	if len(opts.keys) > 1 {
		key = model.CombinedKeys(opts.keys...)
	}
	repo := repository.New(conn, conn.Model(opts.table, key, nil), conn.RepositoryOptions()...).
		OnlyCount(opts.count).
		LimitOffset(opts.limit, opts.offset)
	if opts.order != "" {
		column, dir, _ := strings.Cut(opts.order, ":")
		repo.OrderBy(column, query.Direction(strings.ToUpper(dir)))
	}
	triples, err := parseConditions(opts.where)
	if err != nil {
		return err
	}
	var res repository.Result[*model.Model]
	switch {
	case len(triples) == 0:
		res, err = repo.GetAll(ctx)
	case opts.or:
		res, err = repo.GetByConditionSet(ctx, repo.BuildOrSet(triples...))
	default:
		res, err = repo.GetByConditionSet(ctx, repo.BuildAndSet(triples...))
	}
	if err != nil {
		return err
	}
	if opts.count {
		_, err = fmt.Fprintln(w, res.Count())
		return err
	}
	if res.Len() == 0 {
		_, err = fmt.Fprintln(w, "0 rows")
		return err
	}
	rows := make([]dialect.Row, 0, res.Len())
	for _, m := range res.All() {
		rows = append(rows, dialect.RowFromMap(m.Attributes(), m.ToMap()))
	}
	return printRows(w, rows, 0)
}

func printRows(w io.Writer, rows []dialect.Row, affected int64) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "%d rows affected\n", affected)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rows[0].Columns(), "\t"))
	for _, r := range rows {
		cells := make([]string, r.Len())
		for i, v := range r.Values() {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				return fmt.Errorf("column %s: %w", r.Columns()[i], err)
			}
			cells[i] = s
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
