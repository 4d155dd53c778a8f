package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/csvtransfer"
	"github.com/johnwards/dashgate/internal/dashboard"
)

var errInvalidPayload = errors.New("payload does not satisfy contract")

type command func(context.Context, []string) error

func (a *app) dispatch(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]

	if name == "validate" {
		return a.validate(rest)
	}
	if read, ok := a.reads()[name]; ok {
		if len(rest) > 0 {
			return usageErr("%s takes no arguments", name)
		}
		if err := a.connect(); err != nil {
			return err
		}
		v, err := read(ctx)
		if err != nil {
			return err
		}
		return a.print(v)
	}

	groups := map[string]map[string]command{
		"next-action": {"set": a.nextActionSet},
		"connection":  {"upsert": a.connectionUpsert},
		"event":       {"create": a.eventCreate},
		"approval":    {"create": a.approvalCreate, "decide": a.approvalDecide},
	}
	var cmd command
	switch name {
	case "import":
		cmd = a.importCSV
	case "export":
		cmd = a.exportCSV
	default:
		group, ok := groups[name]
		if !ok {
			return usageErr("unknown command %q", name)
		}
		if len(rest) == 0 {
			return usageErr("%s needs a subcommand", name)
		}
		if cmd = group[rest[0]]; cmd == nil {
			return usageErr("unknown command %q", name+" "+rest[0])
		}
		rest = rest[1:]
	}

	if err := a.connect(); err != nil {
		return err
	}
	return cmd(ctx, rest)
}

func (a *app) reads() map[string]func(context.Context) (any, error) {
	return map[string]func(context.Context) (any, error){
		"kpi":          func(ctx context.Context) (any, error) { return a.client.KPI(ctx) },
		"pipeline":     func(ctx context.Context) (any, error) { return a.client.Pipeline(ctx) },
		"next-actions": func(ctx context.Context) (any, error) { return a.client.NextActions(ctx) },
		"deal-health":  func(ctx context.Context) (any, error) { return a.client.DealHealth(ctx) },
		"forecast":     func(ctx context.Context) (any, error) { return a.client.Forecast(ctx) },
		"loss-reasons": func(ctx context.Context) (any, error) { return a.client.LossReasons(ctx) },
		"duplicates":   func(ctx context.Context) (any, error) { return a.client.Duplicates(ctx) },
		"connections":  func(ctx context.Context) (any, error) { return a.client.IntegrationConnections(ctx) },
		"events":       func(ctx context.Context) (any, error) { return a.client.IntegrationEvents(ctx) },
		"approvals":    func(ctx context.Context) (any, error) { return a.client.Approvals(ctx) },
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageErr("%s: %v", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return usageErr("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

func parseID(flagName, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, usageErr("--%s must be a UUID", flagName)
	}
	return id, nil
}

func (a *app) nextActionSet(ctx context.Context, args []string) error {
	fs := a.flags("next-action set")
	id := fs.String("id", "", "opportunity id")
	at := fs.String("at", "", "next action time, RFC 3339")
	note := fs.String("note", "", "next action note")
	if err := parse(fs, args); err != nil {
		return err
	}
	oppID, err := parseID("id", *id)
	if err != nil {
		return err
	}
	if _, err := time.Parse(time.RFC3339, *at); err != nil {
		return usageErr("--at must be an RFC 3339 time")
	}

	out, err := a.client.UpdateNextAction(ctx, dashboard.NextActionUpdate{ID: oppID, NextActionAt: *at, NextActionNote: *note})
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) connectionUpsert(ctx context.Context, args []string) error {
	fs := a.flags("connection upsert")
	user := fs.String("user", "", "user id")
	provider := fs.String("provider", "", "google or microsoft")
	kind := fs.String("type", "", "email or calendar")
	external := fs.String("external-id", "", "external account id")
	status := fs.String("status", "", "active, revoked or error (server default when empty)")
	var scopes stringsFlag
	fs.Var(&scopes, "scope", "granted scope (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	userID, err := parseID("user", *user)
	if err != nil {
		return err
	}

	in := dashboard.ConnectionUpsert{
		UserID:            userID,
		Provider:          *provider,
		IntegrationType:   *kind,
		ExternalAccountID: *external,
		Scopes:            scopes,
	}
	if *status != "" {
		in.Status = status
	}
	out, err := a.client.UpsertIntegrationConnection(ctx, in)
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) eventCreate(ctx context.Context, args []string) error {
	fs := a.flags("event create")
	provider := fs.String("provider", "", "google or microsoft")
	kind := fs.String("type", "", "email or calendar")
	eventType := fs.String("event-type", "", "event type, e.g. email_sent")
	payload := fs.String("payload", "", "JSON object payload")
	occurred := fs.String("occurred-at", "", "occurrence time, RFC 3339 (default now)")
	if err := parse(fs, args); err != nil {
		return err
	}

	in := dashboard.EventCreate{
		Provider:        *provider,
		IntegrationType: *kind,
		EventType:       *eventType,
		OccurredAt:      *occurred,
	}
	if in.OccurredAt == "" {
		in.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	if *payload != "" {
		if err := json.Unmarshal([]byte(*payload), &in.Payload); err != nil {
			return usageErr("--payload must be a JSON object: %v", err)
		}
	}
	out, err := a.client.CreateIntegrationEvent(ctx, in)
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) approvalCreate(ctx context.Context, args []string) error {
	fs := a.flags("approval create")
	entityType := fs.String("entity-type", "opportunity", "entity type")
	entity := fs.String("entity-id", "", "entity id")
	requestedBy := fs.String("requested-by", "", "requesting user id")
	approver := fs.String("approver", "", "approving user id")
	reason := fs.String("reason", "", "reason")
	if err := parse(fs, args); err != nil {
		return err
	}

	in := dashboard.ApprovalCreate{EntityType: *entityType, Reason: *reason}
	var err error
	if in.EntityID, err = parseID("entity-id", *entity); err != nil {
		return err
	}
	if in.RequestedBy, err = parseID("requested-by", *requestedBy); err != nil {
		return err
	}
	if in.ApproverUserID, err = parseID("approver", *approver); err != nil {
		return err
	}
	out, err := a.client.CreateApproval(ctx, in)
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) approvalDecide(ctx context.Context, args []string) error {
	fs := a.flags("approval decide")
	id := fs.String("id", "", "approval id")
	status := fs.String("status", "", "approved or rejected")
	note := fs.String("note", "", "decision note")
	if err := parse(fs, args); err != nil {
		return err
	}
	approvalID, err := parseID("id", *id)
	if err != nil {
		return err
	}

	d := dashboard.Decision{Status: contract.ApprovalStatus(*status)}
	if *note != "" {
		d.DecisionNote = note
	}
	out, err := a.client.DecideApproval(ctx, approvalID, d)
	if errors.Is(err, dashboard.ErrInvalidDecision) {
		return usageErr("--status must be approved or rejected")
	}
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) importCSV(ctx context.Context, args []string) error {
	fs := a.flags("import")
	entity := fs.String("entity", "", "accounts or opportunities")
	file := fs.String("file", "", "CSV file to upload")
	if err := parse(fs, args); err != nil {
		return err
	}
	target, err := csvtransfer.ParseImportTarget(*entity)
	if err != nil {
		return usageErr("%v", err)
	}
	if *file == "" {
		return usageErr("--file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer func() { _ = f.Close() }()

	if err := a.channel.Upload(ctx, target, filepath.Base(*file), f); err != nil {
		return err
	}
	return a.print(map[string]string{"status": "uploaded", "entity": *entity, "file": *file})
}

func (a *app) exportCSV(ctx context.Context, args []string) error {
	fs := a.flags("export")
	entity := fs.String("entity", "", "accounts or opportunities")
	out := fs.String("out", "", "file name inside the export directory (default <entity>.csv)")
	if err := parse(fs, args); err != nil {
		return err
	}
	target, err := csvtransfer.ParseExportTarget(*entity)
	if err != nil {
		return usageErr("%v", err)
	}
	name := *out
	if name == "" {
		name = *entity + ".csv"
	}

	if err := a.channel.Download(ctx, target, name); err != nil {
		return err
	}
	return a.print(map[string]string{"status": "saved", "entity": *entity, "dir": a.cfg.ExportDir, "file": name})
}

// validate checks a saved response body against a contract without touching
// the network.
func (a *app) validate(args []string) error {
	fs := a.flags("validate")
	kind := fs.String("kind", "", "contract kind: "+strings.Join(contract.Kinds(), ", "))
	file := fs.String("file", "", "JSON response body, - for stdin")
	if err := parse(fs, args); err != nil {
		return err
	}
	v, ok := contract.Lookup(*kind)
	if !ok {
		return usageErr("unknown kind %q (want one of %s)", *kind, strings.Join(contract.Kinds(), ", "))
	}
	if *file == "" {
		return usageErr("--file is required")
	}

	data, err := readInput(*file)
	if err != nil {
		return err
	}
	raw, err := contract.Parse(data)
	if err == nil {
		_, err = v.Validate(raw)
	}
	if err != nil {
		_ = a.print(map[string]any{"kind": *kind, "valid": false, "error": err.Error()})
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return a.print(map[string]any{"kind": *kind, "valid": true})
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
