package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oktel/attendance-report/internal/botclient"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/reportview"
	"github.com/oktel/attendance-report/internal/service"
)

// shadow_compare fetches stats and reports for the same months from two bot
// service deployments and reports where they disagree.

type comparison struct {
	Month          string
	StatsMatch     bool
	ReportMatch    bool
	UserDiffs      []string
	Error          error
	DurationShadow time.Duration
	DurationLive   time.Duration
}

func main() {
	var (
		shadowBase string
		liveBase   string
		token      string
		jwtSecret  string
		jwtIssuer  string
		months     string
		teamID     string
		timeout    time.Duration
	)

	flag.StringVar(&shadowBase, "shadow-base", "http://localhost:8080/api/v4", "candidate bot service base URL")
	flag.StringVar(&liveBase, "live-base", "http://localhost:8065/api/v4", "live deployment base URL (chat server proxy)")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_TOKEN"), "bearer token sent to both services")
	flag.StringVar(&jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "sign a system_admin token with this secret when -token is empty")
	flag.StringVar(&jwtIssuer, "jwt-issuer", os.Getenv("JWT_ISSUER"), "issuer for the signed token")
	flag.StringVar(&months, "months", reportview.CurrentMonth(time.Now()), "comma separated months (YYYY-MM)")
	flag.StringVar(&teamID, "team", "", "optional team id")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "per request timeout")
	flag.Parse()

	var tokens botclient.TokenSource = botclient.StaticToken(token)
	if token == "" && jwtSecret != "" {
		auth := service.NewAuthService(service.AuthConfig{Secret: jwtSecret, Issuer: jwtIssuer, TTL: time.Hour})
		tokens = botclient.NewIssuedToken(auth, "shadow-compare", "shadow-compare", models.RoleSystemAdmin)
	}

	shadow, err := newClient(shadowBase, tokens, timeout)
	if err != nil {
		log.Fatalf("shadow client: %v", err)
	}
	live, err := newClient(liveBase, tokens, timeout)
	if err != nil {
		log.Fatalf("live client: %v", err)
	}

	var (
		results  []comparison
		breaking int
	)
	for _, month := range strings.Split(months, ",") {
		month = strings.TrimSpace(month)
		if month == "" {
			continue
		}
		comp := compareMonth(context.Background(), shadow, live, month, teamID)
		if comp.Error != nil || !comp.StatsMatch || !comp.ReportMatch {
			breaking++
		}
		results = append(results, comp)
	}

	printReport(results)
	fmt.Printf("Months with diffs: %d/%d\n", breaking, len(results))
	if breaking > 0 {
		os.Exit(1)
	}
}

func newClient(base string, tokens botclient.TokenSource, timeout time.Duration) (*botclient.Client, error) {
	return botclient.New(botclient.Config{
		BaseURL: base,
		Timeout: timeout,
		Tokens:  tokens,
	})
}

type snapshot struct {
	stats  *models.AttendanceStats
	report *models.AttendanceReport
	took   time.Duration
}

func fetch(ctx context.Context, c *botclient.Client, filter models.ReportFilter, out *snapshot) error {
	start := time.Now()
	stats, report, err := c.FetchAll(ctx, filter)
	if err != nil {
		return err
	}
	out.stats, out.report, out.took = stats, report, time.Since(start)
	return nil
}

func compareMonth(ctx context.Context, shadow, live *botclient.Client, month, teamID string) comparison {
	comp := comparison{Month: month}
	filter, err := reportview.MonthFilter(month, teamID)
	if err != nil {
		comp.Error = err
		return comp
	}

	var a, b snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := fetch(gctx, shadow, filter, &a); err != nil {
			return fmt.Errorf("shadow: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := fetch(gctx, live, filter, &b); err != nil {
			return fmt.Errorf("live: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		comp.Error = err
		return comp
	}

	comp.DurationShadow, comp.DurationLive = a.took, b.took
	comp.StatsMatch = reflect.DeepEqual(a.stats, b.stats)
	comp.UserDiffs = diffUsers(a.report.Users, b.report.Users)
	comp.ReportMatch = len(comp.UserDiffs) == 0
	return comp
}

// diffUsers compares users by id; order is not significant.
func diffUsers(shadow, live []models.UserReport) []string {
	byID := make(map[string]models.UserReport, len(live))
	for _, u := range live {
		byID[u.UserID] = u
	}
	var diffs []string
	for _, u := range shadow {
		other, ok := byID[u.UserID]
		if !ok {
			diffs = append(diffs, u.UserID+": only in shadow")
			continue
		}
		delete(byID, u.UserID)
		if !reflect.DeepEqual(u, other) {
			diffs = append(diffs, fmt.Sprintf("%s: worked %d/%d leave %d/%d late %d/%d early %d/%d",
				u.UserID, u.DaysWorked, other.DaysWorked, u.DaysLeave, other.DaysLeave,
				u.LateArrivals, other.LateArrivals, u.EarlyDepartures, other.EarlyDepartures))
		}
	}
	for id := range byID {
		diffs = append(diffs, id+": only in live")
	}
	sort.Strings(diffs)
	return diffs
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatsMatch || !res.ReportMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, res.Month)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Shadow: %s | Live: %s\n", res.DurationShadow, res.DurationLive)
		fmt.Printf("  Stats match: %t | Report match: %t\n", res.StatsMatch, res.ReportMatch)
		for _, d := range res.UserDiffs {
			fmt.Printf("    %s\n", d)
		}
	}
}
