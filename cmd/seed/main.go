// Command seed fills a running API with sample programs and clients for
// local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/harentsoaR/clinic-records-api/internal/apiclient"
	"github.com/harentsoaR/clinic-records-api/internal/models"
)

type options struct {
	APIURL   string
	Name     string
	Email    string
	Password string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.StringVar(&o.APIURL, "api", "http://localhost:8080/api", "API base URL")
	fs.StringVar(&o.Name, "name", "Dr. Seed", "Name of the seeding user")
	fs.StringVar(&o.Email, "email", "seed@clinic.local", "Email of the seeding user")
	fs.StringVar(&o.Password, "password", os.Getenv("SEED_PASSWORD"), "Password of the seeding user (or SEED_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if len(o.Password) < 8 {
		return o, errors.New("password of at least 8 characters required (use -password or SEED_PASSWORD)")
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := run(ctx, o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var samplePrograms = []struct{ name, description string }{
	{"HIV Care", "Antiretroviral therapy and adherence follow-up"},
	{"Tuberculosis", "Six month directly observed treatment course"},
	{"Malaria", "Diagnosis, treatment and prevention counselling"},
}

var sampleClients = []struct {
	first, last, dob, gender, phone string
	programs                        []int
}{
	{"Amina", "Otieno", "1988-04-12", models.GenderFemale, "0712000001", []int{0, 1}},
	{"Brian", "Mwangi", "1975-11-30", models.GenderMale, "0712000002", []int{0}},
	{"Chao", "Wanjiru", "2001-06-05", models.GenderOther, "0712000003", []int{2}},
}

func run(ctx context.Context, o options, out io.Writer) error {
	var token string
	api, err := apiclient.New(o.APIURL, apiclient.WithTokenSource(func(context.Context) (string, error) {
		return token, nil
	}))
	if err != nil {
		return err
	}

	auth, err := api.Register(ctx, apiclient.RegisterRequest{Name: o.Name, Email: o.Email, Password: o.Password})
	if apiclient.IsStatus(err, http.StatusConflict) {
		auth, err = api.Login(ctx, o.Email, o.Password)
	}
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	token = auth.Token
	fmt.Fprintf(out, "authenticated as %s\n", auth.User.Email)

	existing, err := api.ListPrograms(ctx)
	if err != nil {
		return fmt.Errorf("list programs: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[p.Name] = p.ID.Hex()
	}

	programIDs := make([]string, len(samplePrograms))
	for i, sp := range samplePrograms {
		if id, ok := byName[sp.name]; ok {
			programIDs[i] = id
			continue
		}
		name, desc := sp.name, sp.description
		p, err := api.CreateProgram(ctx, apiclient.ProgramRequest{Name: &name, Description: &desc})
		if err != nil {
			return fmt.Errorf("create program %q: %w", sp.name, err)
		}
		programIDs[i] = p.ID.Hex()
		fmt.Fprintf(out, "created program %s\n", p.Name)
	}

	for _, sc := range sampleClients {
		first, last, dob, gender, phone := sc.first, sc.last, sc.dob, sc.gender, sc.phone
		c, err := api.CreateClient(ctx, apiclient.ClientRequest{
			FirstName:     &first,
			LastName:      &last,
			DateOfBirth:   &dob,
			Gender:        &gender,
			ContactNumber: &phone,
		})
		if err != nil {
			return fmt.Errorf("create client %s %s: %w", sc.first, sc.last, err)
		}
		for _, idx := range sc.programs {
			if _, err := api.EnrollClient(ctx, c.ID.Hex(), programIDs[idx]); err != nil {
				return fmt.Errorf("enroll %s in %s: %w", sc.first, samplePrograms[idx].name, err)
			}
		}
		fmt.Fprintf(out, "created client %s %s with %d enrollment(s)\n", c.FirstName, c.LastName, len(sc.programs))
	}
	return nil
}
