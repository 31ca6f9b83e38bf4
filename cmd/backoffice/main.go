// Package main runs the interactive back-office client: it restores the
// persisted session, wires the HTTP adapter and resource facades, and
// drops into a command shell over the protected screens.
package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/config"
	"github.com/sevenseas/backoffice/internal/format"
	"github.com/sevenseas/backoffice/internal/guard"
	"github.com/sevenseas/backoffice/internal/logger"
	"github.com/sevenseas/backoffice/internal/models"
	"github.com/sevenseas/backoffice/internal/screens"
	"github.com/sevenseas/backoffice/internal/services"
	"github.com/sevenseas/backoffice/internal/session"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// app bundles everything the shell loop needs.
type app struct {
	store     *session.Store
	notify    *screens.Notifier
	investors *screens.InvestorsScreen
	payments  *screens.PaymentsScreen
	users     *screens.UsersScreen
	dashboard *screens.DashboardScreen
	reports   *screens.ReportsScreen
	in        *bufio.Scanner
}

func main() {
	// Load .env before flags/env parsing; missing file is fine.
	_ = godotenv.Load()
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	// Session store owns identity; the adapter pulls its credential from
	// it and retries once through its refresh hook on a 401.
	store := session.New(options.StateDir, zapLogger)
	client := api.New(options.ServerURL, store, zapLogger)
	store.Bind(client)
	store.OnLogout(func() { fmt.Println("Session ended. Use 'login' to sign in.") })

	// Restore must finish before the guard renders any decision.
	store.Restore()

	notify := screens.NewNotifier(0)

	investorSvc := services.NewInvestors(client)
	paymentSvc := services.NewPayments(client)
	userSvc := services.NewUsers(client)
	dashboardSvc := services.NewDashboard(client)
	reportSvc := services.NewReports(client)

	a := &app{
		store:     store,
		notify:    notify,
		investors: screens.NewInvestorsScreen(investorSvc, notify, zapLogger),
		payments:  screens.NewPaymentsScreen(paymentSvc, investorSvc, store, notify, zapLogger),
		users:     screens.NewUsersScreen(userSvc, store, notify, zapLogger),
		dashboard: screens.NewDashboardScreen(dashboardSvc, notify, zapLogger),
		reports:   screens.NewReportsScreen(reportSvc, investorSvc, paymentSvc, options.DownloadDir, notify, zapLogger),
		in:        bufio.NewScanner(os.Stdin),
	}

	if user := store.User(); user != nil {
		fmt.Printf("Signed in as %s (%s)\n", user.Username, user.Role)
	} else {
		fmt.Println("Not signed in. Use 'login' to begin.")
	}

	a.repl()
}

// repl runs the interactive shell loop, dispatching commands to screens.
func (a *app) repl() {
	ctx := context.Background()
	for {
		fmt.Print("backoffice> ")
		if !a.in.Scan() {
			return
		}
		args := strings.Fields(strings.TrimSpace(a.in.Text()))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "help":
			printHelp()
		case "exit", "quit":
			return
		case "login":
			a.login(ctx)
		case "logout":
			a.store.Logout()
		case "whoami":
			if user := a.store.User(); user != nil {
				fmt.Printf("%s <%s> role=%s\n", user.Username, user.Email, user.Role)
			} else {
				fmt.Println("Not signed in.")
			}
		default:
			a.protected(ctx, args)
		}
		a.flushNotification()
	}
}

// protected dispatches commands that require an authenticated session,
// consulting the route guard first.
func (a *app) protected(ctx context.Context, args []string) {
	switch guard.Resolve(a.store) {
	case guard.Waiting:
		fmt.Println("Session still loading, try again.")
		return
	case guard.RedirectToLogin:
		fmt.Println("Please log in first.")
		return
	}

	switch args[0] {
	case "investors":
		a.listInvestors(ctx, strings.Join(args[1:], " "))
	case "add-investor":
		a.addInvestor(ctx)
	case "del-investor":
		a.deleteInvestor(ctx, args[1:])
	case "payments":
		a.listPayments(ctx)
	case "add-payment":
		a.addPayment(ctx)
	case "verify":
		a.transitionPayment(ctx, args[1:], true)
	case "fail":
		a.transitionPayment(ctx, args[1:], false)
	case "users":
		a.listUsers(ctx, strings.Join(args[1:], " "))
	case "add-user":
		a.addUser(ctx)
	case "del-user":
		a.deleteUser(ctx, args[1:])
	case "dashboard":
		a.showDashboard(ctx)
	case "top":
		a.topInvestors(ctx, args[1:])
	case "statement":
		a.downloadStatement(ctx, args[1:])
	case "receipt":
		a.downloadReceipt(ctx, args[1:])
	default:
		fmt.Println("Unknown command. Type 'help' for the list.")
	}
}

func printHelp() {
	fmt.Println(`Commands:
  login, logout, whoami
  investors [query]      list investors (filtered)
  add-investor           create an investor
  del-investor <id>      deactivate an investor
  payments               list payments
  add-payment            record a payment
  verify <id>            verify a pending payment (admin)
  fail <id>              mark a pending payment failed (admin)
  users [query]          list system accounts
  add-user               create a system account
  del-user <id>          delete a system account
  dashboard              show KPI overview
  top [column]           rank investors by share_amount or total_paid
  statement <investor>   download investor statement PDF
  receipt <payment>      download payment receipt PDF
  exit`)
}

func (a *app) flushNotification() {
	if n := a.notify.Current(); n != nil {
		fmt.Printf("[%s] %s\n", n.Severity, n.Message)
		a.notify.Dismiss()
	}
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s: ", label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) login(ctx context.Context) {
	username := a.prompt("Username")
	password := a.prompt("Password")
	result := a.store.Login(ctx, username, password)
	if !result.Success {
		fmt.Println(result.Message)
		return
	}
	user := a.store.User()
	fmt.Printf("Welcome, %s (%s)\n", user.Username, user.Role)
}

func (a *app) listInvestors(ctx context.Context, query string) {
	if err := a.investors.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	a.investors.SetQuery(query)
	for _, inv := range a.investors.Visible() {
		fmt.Printf("#%d  %-25s %-4s kyc=%-8s committed=%s paid=%s (%s)\n",
			inv.ID, inv.FullName, inv.InvestorType, inv.KycStatus,
			format.Currency(inv.ShareAmount), format.Currency(inv.TotalPaid),
			format.Percent(inv.CompletionPercentage, 1))
	}
}

func (a *app) addInvestor(ctx context.Context) {
	a.investors.OpenCreate()
	for _, field := range []string{"first_name", "last_name", "email", "phone", "investor_type", "share_amount", "shares_owned", "joined_date", "notes"} {
		if v := a.prompt(field); v != "" {
			a.investors.SetField(field, v)
		}
	}
	if err := a.investors.Submit(ctx); err != nil {
		a.printFormErrors(a.investors.Form())
	}
}

func (a *app) deleteInvestor(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: del-investor <id>")
		return
	}
	if err := a.investors.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	for _, inv := range a.investors.Visible() {
		if inv.ID == id {
			a.investors.OpenDelete(inv)
			if strings.EqualFold(a.prompt(fmt.Sprintf("Deactivate %s? (y/n)", inv.FullName)), "y") {
				_ = a.investors.ConfirmDelete(ctx)
			} else {
				a.investors.CancelDelete()
			}
			return
		}
	}
	fmt.Println("Investor not found")
}

func (a *app) listPayments(ctx context.Context) {
	if err := a.payments.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range a.payments.Payments() {
		fmt.Printf("#%d  %-25s %-15s %s / %s  %-10s %s %s\n",
			p.ID, p.InvestorName, p.PaymentTypeDisplay,
			format.Currency(p.AmountUSD), "KES "+p.AmountKES.Round(0).StringFixed(0),
			p.PaymentStatus, format.Date(p.PaymentDate), p.ReferenceNumber)
	}
}

func (a *app) addPayment(ctx context.Context) {
	a.payments.OpenCreate(ctx)
	for _, field := range []string{"investor", "payment_type", "amount", "currency", "payment_method", "payment_date", "due_date", "reference_number", "quarter", "notes"} {
		if v := a.prompt(field); v != "" {
			a.payments.SetField(field, v)
		}
		if field == "currency" {
			form := a.payments.Form()
			if preview := a.payments.Preview(form.Value("amount"), parseCurrency(form.Value("currency"))); preview != "" {
				fmt.Println("  ≈", preview)
			}
		}
	}
	if err := a.payments.Submit(ctx); err != nil {
		a.printFormErrors(a.payments.Form())
	}
}

func (a *app) transitionPayment(ctx context.Context, args []string, verify bool) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: verify|fail <id>")
		return
	}
	if err := a.payments.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	var err error
	if verify {
		err = a.payments.Verify(ctx, id, a.prompt("Notes (optional)"))
	} else {
		err = a.payments.Fail(ctx, id, a.prompt("Reason (optional)"))
	}
	if err != nil {
		fmt.Println(err)
	}
}

func (a *app) listUsers(ctx context.Context, query string) {
	if err := a.users.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	a.users.SetQuery(query)
	current := a.store.User()
	for _, u := range a.users.Visible() {
		marker := ""
		if current != nil && current.ID == u.ID {
			marker = " (you)"
		}
		fmt.Printf("#%d  %-15s %-25s %-7s active=%t%s\n", u.ID, u.Username, u.Email, u.Role, u.IsActive, marker)
	}
}

func (a *app) addUser(ctx context.Context) {
	a.users.OpenCreate()
	for _, field := range []string{"username", "email", "first_name", "last_name", "password", "role", "phone"} {
		if v := a.prompt(field); v != "" {
			a.users.SetField(field, v)
		}
	}
	if err := a.users.Submit(ctx); err != nil {
		a.printFormErrors(a.users.Form())
	}
}

func (a *app) deleteUser(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: del-user <id>")
		return
	}
	if err := a.users.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	for _, u := range a.users.Visible() {
		if u.ID == id {
			if err := a.users.OpenDelete(u); err != nil {
				fmt.Println(err)
				return
			}
			if strings.EqualFold(a.prompt(fmt.Sprintf("Delete %s? (y/n)", u.Username)), "y") {
				_ = a.users.ConfirmDelete(ctx)
			} else {
				a.users.CancelDelete()
			}
			return
		}
	}
	fmt.Println("User not found")
}

func (a *app) showDashboard(ctx context.Context) {
	if err := a.dashboard.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	o := a.dashboard.Overview()
	fmt.Printf("Target:      %s (%s achieved)\n", format.Currency(o.ProjectTarget), format.Percent(o.TargetAchieved, 1))
	fmt.Printf("Committed:   %s\n", format.Currency(o.TotalCommitted))
	fmt.Printf("Raised:      %s (%s collected)\n", format.Currency(o.TotalRaised), format.Percent(o.CollectionRate, 1))
	fmt.Printf("Outstanding: %s\n", format.Currency(o.TotalOutstanding))
	fmt.Printf("Investors:   %d total, %d active (%d LP / %d GP), %d KYC pending\n",
		o.TotalInvestors, o.ActiveInvestors, o.LPCount, o.GPCount, o.KycPendingCount)
	fmt.Printf("Payments:    %d verified, %d pending, %d overdue\n",
		o.VerifiedPayments, o.PendingPayments, o.OverduePayments)
	if overdue := a.dashboard.Overdue(); len(overdue) > 0 {
		fmt.Println("Overdue investors:")
		for _, inv := range overdue {
			fmt.Printf("  %s  outstanding %s\n", inv.FullName, format.Currency(inv.OutstandingBalance))
		}
	}
}

func (a *app) topInvestors(ctx context.Context, args []string) {
	by := "share_amount"
	if len(args) > 0 {
		by = args[0]
	}
	top, err := a.dashboard.TopInvestors(ctx, by)
	if err != nil {
		fmt.Println(err)
		return
	}
	for i, inv := range top {
		fmt.Printf("%2d. %-25s committed=%s paid=%s\n",
			i+1, inv.FullName, format.Currency(inv.ShareAmount), format.Currency(inv.TotalPaid))
	}
}

func (a *app) downloadStatement(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: statement <investor-id>")
		return
	}
	if err := a.reports.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	if _, err := a.reports.DownloadStatement(ctx, id); err != nil {
		fmt.Println(err)
	}
}

func (a *app) downloadReceipt(ctx context.Context, args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: receipt <payment-id>")
		return
	}
	if err := a.reports.Load(ctx); err != nil {
		fmt.Println(err)
		return
	}
	if _, err := a.reports.DownloadReceipt(ctx, id); err != nil {
		fmt.Println(err)
	}
}

func (a *app) printFormErrors(form *screens.Form) {
	if form == nil {
		return
	}
	if banner := form.Banner(); banner != "" {
		fmt.Println("!", banner)
	}
	for _, field := range []string{"investor", "username", "first_name", "last_name", "email", "phone", "password", "role", "investor_type", "share_amount", "shares_owned", "joined_date", "payment_type", "amount", "currency", "payment_method", "payment_date", "due_date", "reference_number", "quarter", "notes"} {
		if msg := form.FieldError(field); msg != "" {
			fmt.Printf("! %s: %s\n", field, msg)
		}
	}
}

func parseCurrency(s string) models.Currency {
	if strings.EqualFold(s, string(models.KES)) {
		return models.KES
	}
	return models.USD
}

func parseID(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	return id, err == nil
}
