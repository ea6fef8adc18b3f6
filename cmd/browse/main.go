package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/foxxcyber/deal-finder/internal/catalog"
	"github.com/foxxcyber/deal-finder/internal/config"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/models"
	"github.com/foxxcyber/deal-finder/internal/search"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

const usage = `Type to search. Commands:
  :submit                 run the typed search now
  :page N                 go to page N
  :category NAME          filter by category (empty clears)
  :brand A,B              filter by brands (empty clears)
  :price MIN MAX          filter by price range (use "-" for no bound)
  :sort KEY [asc|desc]    featured, price, rating, newest or name
  :clear                  reset every filter
  :quit                   exit`

func main() {
	pageSize := flag.Int("page-size", 0, "Results per page (defaults to DEFAULT_PAGE_SIZE)")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	products, err := db.ListProducts(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load catalog")
	}
	logx.Info().Int("products", len(products)).Dur("debounce", cfg.SearchDebounce).Msg("catalog loaded")

	state := models.NewQueryState()
	state.PageSize = cfg.DefaultPageSize
	if *pageSize > 0 {
		state.PageSize = min(*pageSize, cfg.MaxPageSize)
	}

	out := &printer{w: os.Stdout}
	session := search.NewSession(state, cfg.SearchDebounce,
		func() []models.Product { return products },
		out.result)
	defer session.Close()

	fmt.Fprintln(os.Stdout, usage)
	if err := run(session, os.Stdin, out); err != nil {
		logx.Fatal().Err(err).Msg("reading input failed")
	}
}

// run feeds each input line to the session until EOF or :quit
func run(s *search.Session, in io.Reader, out *printer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		quit, err := apply(s, scanner.Text())
		if err != nil {
			out.line("error: " + err.Error())
			continue
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

var errUnknownCommand = errors.New("unknown command")

// apply interprets one line of input. Lines not starting with ':' are search
// text and go through the debouncer.
func apply(s *search.Session, line string) (bool, error) {
	if !strings.HasPrefix(line, ":") {
		s.Type(line)
		return false, nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "quit", "q":
		return true, nil
	case "submit":
		s.Submit()
	case "page":
		page, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("invalid page %q", arg)
		}
		s.GoToPage(page)
	case "category":
		s.Update(func(st *models.QueryState) { st.Category = arg })
	case "brand":
		var brands []string
		for _, b := range strings.Split(arg, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brands = append(brands, b)
			}
		}
		s.Update(func(st *models.QueryState) { st.Brands = brands })
	case "price":
		lo, hi, err := parseRange(arg)
		if err != nil {
			return false, err
		}
		s.Update(func(st *models.QueryState) { st.PriceMin, st.PriceMax = lo, hi })
	case "sort":
		key, dir, _ := strings.Cut(arg, " ")
		sortKey, err := catalog.ParseSortKey(key)
		if err != nil {
			return false, err
		}
		sortDir, err := catalog.ParseSortDirection(strings.TrimSpace(dir))
		if err != nil {
			return false, err
		}
		s.Update(func(st *models.QueryState) { st.SortKey, st.SortDirection = sortKey, sortDir })
	case "clear":
		s.Update(func(st *models.QueryState) {
			fresh := models.NewQueryState()
			fresh.SearchText = st.SearchText
			fresh.PageSize = st.PageSize
			*st = fresh
		})
	default:
		return false, fmt.Errorf("%w %q", errUnknownCommand, cmd)
	}
	return false, nil
}

func parseRange(arg string) (float64, float64, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return 0, 0, errors.New("usage: :price MIN MAX")
	}
	lo, err := parseBound(fields[0], 0)
	if err != nil {
		return 0, 0, err
	}
	hi, err := parseBound(fields[1], math.Inf(1))
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func parseBound(raw string, open float64) (float64, error) {
	if raw == "-" {
		return open, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return v, nil
}

// printer serializes output from the input loop and the debounce timer
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *printer) result(res models.QueryResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		fmt.Fprintf(p.w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(p.w, "%d matches, page %d of %d\n", res.TotalMatched, res.Page, res.TotalPages)
	for _, item := range res.Items {
		fmt.Fprintf(p.w, "  %-40s %-16s %8.2f\n", item.Name, item.Brand, item.Price)
	}
}
