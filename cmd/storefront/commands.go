package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storefront"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) (any, error)
}

var commands = map[string]command{
	"login":       {"-email E [-password P]", cmdLogin},
	"register":    {"-email E [-password P] [-first F] [-last L]", cmdRegister},
	"logout":      {"", cmdLogout},
	"session":     {"", cmdSession},
	"products":    {"[-search S] [-category C] [-page N] [-limit N]", cmdProducts},
	"product":     {"<id>", cmdProduct},
	"cart":        {"", cmdCart},
	"cart-add":    {"-product ID [-qty N]", cmdCartAdd},
	"cart-update": {"-item ID -qty N", cmdCartUpdate},
	"cart-remove": {"-item ID", cmdCartRemove},
	"cart-clear":  {"", cmdCartClear},
	"orders":      {"", cmdOrders},
	"order":       {"<id>", cmdOrder},
	"checkout":    {"-street S -city C -postal P -country C [-name N] [-phone P] [-payment M] [-notes N]", cmdCheckout},
	"shipping":    {"-street S -city C -postal P -country C", cmdShipping},
	"profile":     {"[-first F] [-last L] [-phone P]", cmdProfile},
	"upload":      {"<file>", cmdUpload},
	"proxy":       {"", cmdProxy},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: storefront [-config path] <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")

	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		fmt.Fprintf(w, "  %-12s %s\n", n, commands[n].usage)
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// oneArg — команды с единственным позиционным аргументом.
func oneArg(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", errUsage
	}
	return args[0], nil
}

func noArgs(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	return nil
}

// password берётся из флага, иначе из STOREFRONT_PASSWORD: в истории shell его не видно.
func password(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("STOREFRONT_PASSWORD")
}

// sessionView — то, что CLI показывает после входа: токены не печатаются.
type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

func cmdLogin(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	pass := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	out, err := sf.Login(ctx, *email, password(*pass))
	if err != nil {
		return nil, err
	}

	return sessionView{Authenticated: true, User: out.User}, nil
}

func cmdRegister(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("register")
	var in models.RegisterRequest
	fs.StringVar(&in.Email, "email", "", "account email")
	pass := fs.String("password", "", "account password")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	in.Password = password(*pass)

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	out, err := sf.Register(ctx, in)
	if err != nil {
		return nil, err
	}

	return sessionView{Authenticated: true, User: out.User}, nil
}

func cmdLogout(ctx context.Context, a *app, args []string) (any, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	// Локальная сессия закрыта в любом случае.
	if err := sf.Logout(ctx); err != nil {
		a.log.Warn("logout_degraded", "err", err.Error())
	}

	return sessionView{Authenticated: false}, nil
}

func cmdSession(ctx context.Context, a *app, args []string) (any, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	info, err := sf.Session(ctx)
	if errors.Is(err, storefront.ErrNotAuthenticated) {
		return storefront.SessionInfo{}, nil
	}

	return info, err
}

func cmdProducts(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("products")
	var q models.ProductQuery
	fs.StringVar(&q.Search, "search", "", "full-text search")
	fs.StringVar(&q.Category, "category", "", "category filter")
	fs.IntVar(&q.Page, "page", 0, "page number")
	fs.IntVar(&q.Limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.ListProducts(ctx, q)
}

func cmdProduct(ctx context.Context, a *app, args []string) (any, error) {
	id, err := oneArg(args)
	if err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.Product(ctx, id)
}

func cmdCart(ctx context.Context, a *app, args []string) (any, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.Cart(ctx)
}

func cmdCartAdd(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("cart-add")
	product := fs.String("product", "", "product id")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.AddItem(ctx, *product, *qty)
}

func cmdCartUpdate(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("cart-update")
	item := fs.String("item", "", "cart item id")
	qty := fs.Int("qty", 0, "new quantity")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.UpdateItem(ctx, *item, *qty)
}

func cmdCartRemove(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("cart-remove")
	item := fs.String("item", "", "cart item id")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.RemoveItem(ctx, *item)
}

func cmdCartClear(ctx context.Context, a *app, args []string) (any, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return nil, sf.ClearCart(ctx)
}

func cmdOrders(ctx context.Context, a *app, args []string) (any, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.Orders(ctx)
}

func cmdOrder(ctx context.Context, a *app, args []string) (any, error) {
	id, err := oneArg(args)
	if err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.Order(ctx, id)
}

func addressFlags(fs *flag.FlagSet, addr *models.Address) {
	fs.StringVar(&addr.Street, "street", "", "street")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.PostalCode, "postal", "", "postal code")
	fs.StringVar(&addr.Country, "country", "", "country")
}

func cmdCheckout(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("checkout")
	var in models.CreateOrderRequest
	addressFlags(fs, &in.ShippingAddress)
	fs.StringVar(&in.ShippingAddress.FullName, "name", "", "recipient name")
	fs.StringVar(&in.ShippingAddress.Phone, "phone", "", "recipient phone")
	fs.StringVar(&in.PaymentMethod, "payment", "", "payment method")
	fs.StringVar(&in.Notes, "notes", "", "order notes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.CreateOrder(ctx, in)
}

func cmdShipping(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("shipping")
	var in models.ShippingQuoteRequest
	addressFlags(fs, &in.Address)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.QuoteShipping(ctx, in)
}

// cmdProfile без флагов читает профиль, с флагами обновляет только заданные поля.
func cmdProfile(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlags("profile")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var in models.UpdateProfileRequest
	set := 0
	fs.Visit(func(f *flag.Flag) {
		set++
		switch f.Name {
		case "first":
			in.FirstName = first
		case "last":
			in.LastName = last
		case "phone":
			in.Phone = phone
		}
	})

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	if set == 0 {
		return sf.Profile(ctx)
	}

	return sf.UpdateProfile(ctx, in)
}

func cmdUpload(ctx context.Context, a *app, args []string) (any, error) {
	path, err := oneArg(args)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sf, err := a.client()
	if err != nil {
		return nil, err
	}

	return sf.UploadFile(ctx, filepath.Base(path), f)
}
