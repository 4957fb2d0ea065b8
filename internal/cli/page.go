package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pmadmin-backend/internal/domain"
	"pmadmin-backend/internal/repository"
)

type pageOptions struct {
	page      int
	limit     int
	sortBy    string
	sortOrder string
	filters   []string
	userID    string
}

// pageColumns lists the columns printed per domain, in order.
var pageColumns = map[string][]string{
	domain.TableProjects:      {"name", "status", "version", "owner_id", "created_at"},
	domain.TableUsers:         {"full_name", "email", "role", "active"},
	domain.TableTickets:       {"title", "status", "priority", "project_id"},
	domain.TablePayments:      {"id", "user_id", "amount", "currency", "status"},
	domain.TableNotifications: {"title", "read", "created_at"},
}

func newPageCommand(root *rootOptions) *cobra.Command {
	opts := &pageOptions{}

	cmd := &cobra.Command{
		Use:       "page <projects|users|tickets|payments|notifications>",
		Short:     "Print one page of a domain",
		Long:      `Run one paged query in process and print it as a table. Filters are column=value; comma-separated values match any.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{domain.TableProjects, domain.TableUsers, domain.TableTickets, domain.TablePayments, domain.TableNotifications},
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.params()
			if err != nil {
				return err
			}

			container, cleanup, err := root.container()
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			svc := container.Pagination
			ctx := cmd.Context()

			switch table := args[0]; table {
			case domain.TableProjects:
				return printPage(out, table, pageColumns[table], fetch(svc.GetProjects(ctx, params)))
			case domain.TableUsers:
				return printPage(out, table, pageColumns[table], fetch(svc.GetUsers(ctx, params)))
			case domain.TableTickets:
				return printPage(out, table, pageColumns[table], fetch(svc.GetTickets(ctx, params)))
			case domain.TablePayments:
				return printPage(out, table, pageColumns[table], fetch(svc.GetPayments(ctx, params)))
			case domain.TableNotifications:
				return printPage(out, table, pageColumns[table], fetch(svc.GetNotifications(ctx, opts.userID, params)))
			default:
				return fmt.Errorf("unknown domain %q", table)
			}
		},
	}

	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", repository.DefaultPageSize, "Rows per page")
	cmd.Flags().StringVar(&opts.sortBy, "sort-by", "", "Sort column")
	cmd.Flags().StringVar(&opts.sortOrder, "sort-order", string(repository.Ascending), "Sort direction (asc or desc)")
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil, "Filter as column=value (repeatable)")
	cmd.Flags().StringVar(&opts.userID, "user", "", "User ID (notifications only)")
	return cmd
}

func (o *pageOptions) params() (repository.PaginationParams, error) {
	params := repository.PaginationParams{
		Page:      o.page,
		Limit:     o.limit,
		SortBy:    o.sortBy,
		SortOrder: repository.SortOrder(o.sortOrder),
	}
	for _, f := range o.filters {
		column, value, ok := strings.Cut(f, "=")
		if !ok || column == "" {
			return params, fmt.Errorf("invalid filter %q: want column=value", f)
		}
		if params.Filters == nil {
			params.Filters = make(map[string]string)
		}
		params.Filters[column] = value
	}
	return params, nil
}

// pageResult is a fetched page reduced to what printPage needs.
type pageResult struct {
	rows []any
	meta repository.PageMeta
	err  error
}

func fetch[T any](result repository.PaginatedResult[T], err error) pageResult {
	if err != nil {
		return pageResult{err: err}
	}
	rows := make([]any, len(result.Data))
	for i, row := range result.Data {
		rows[i] = row
	}
	return pageResult{rows: rows, meta: result.Pagination}
}
