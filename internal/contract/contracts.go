package contract

import (
	"errors"
	"sort"
)

// Contract decodes one object of a resource.
type Contract[T any] struct {
	Name   string
	Fields []Field
	build  func(record) T
}

// Decode validates raw and builds a T from it.
func (c Contract[T]) Decode(raw any) (T, error) {
	return c.decodeAt(raw, "", -1)
}

func (c Contract[T]) decodeAt(raw any, path string, index int) (T, error) {
	var zero T
	rec, err := validate(c.Fields, raw, path, index)
	if err != nil {
		return zero, c.named(err)
	}
	return c.build(rec), nil
}

func (c Contract[T]) named(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Contract == "" {
		ve.Contract = c.Name
	}
	return err
}

// ListContract decodes the {"data": [...]} list envelope. A single bad
// element rejects the whole list.
type ListContract[T any] struct {
	Name string
	Item Contract[T]
}

// DecodeList validates raw and returns every element, or the first failure.
func (l ListContract[T]) DecodeList(raw any) ([]T, error) {
	items, err := dataList(raw, l.Name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := l.Item.decodeAt(item, "data[]", i)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Contract = l.Name
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Validate implements Validator.
func (l ListContract[T]) Validate(raw any) (any, error) {
	return l.DecodeList(raw)
}

// Kind implements Validator.
func (l ListContract[T]) Kind() string { return l.Name }

func dataList(raw any, name string) ([]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Contract: name, Path: "$", Index: -1, Expected: "object", Got: describe(raw)}
	}
	v, present := obj["data"]
	if !present {
		return nil, &ValidationError{Contract: name, Path: "data", Index: -1, Expected: "array", Got: "missing"}
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Contract: name, Path: "data", Index: -1, Expected: "array", Got: describe(v)}
	}
	return items, nil
}

// KPIContract decodes the {snapshotAt, data} KPI envelope.
type KPIContract struct {
	Item Contract[KPIItem]
}

// Decode validates raw and returns the snapshot.
func (k KPIContract) Decode(raw any) (KPISnapshot, error) {
	rec, err := validate([]Field{{Name: "snapshotAt", Kind: KindString}}, raw, "", -1)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Contract = "kpi"
		}
		return KPISnapshot{}, err
	}
	items, err := ListContract[KPIItem]{Name: "kpi", Item: k.Item}.DecodeList(raw)
	if err != nil {
		return KPISnapshot{}, err
	}
	return KPISnapshot{SnapshotAt: rec.str("snapshotAt"), Data: items}, nil
}

// Validate implements Validator.
func (k KPIContract) Validate(raw any) (any, error) {
	return k.Decode(raw)
}

// Kind implements Validator.
func (KPIContract) Kind() string { return "kpi" }

var (
	KPIItemContract = Contract[KPIItem]{
		Name: "kpi-item",
		Fields: []Field{
			{Name: "metricKey", Kind: KindNonEmptyString},
			{Name: "metricValue", Kind: KindNumber},
			{Name: "dimensions", Kind: KindObject, Optional: true},
		},
		build: func(r record) KPIItem {
			return KPIItem{
				MetricKey:   r.str("metricKey"),
				MetricValue: r.num("metricValue"),
				Dimensions:  r.obj("dimensions"),
			}
		},
	}

	PipelineStageContract = Contract[PipelineStage]{
		Name: "pipeline-stage",
		Fields: []Field{
			{Name: "stage", Kind: KindEnum, Enum: stageNames()},
			{Name: "count", Kind: KindCount},
			{Name: "totalAmount", Kind: KindNumber},
		},
		build: func(r record) PipelineStage {
			return PipelineStage{
				Stage:       Stage(r.str("stage")),
				Count:       r.integer("count"),
				TotalAmount: r.num("totalAmount"),
			}
		},
	}

	NextActionContract = Contract[NextAction]{
		Name: "next-action",
		Fields: []Field{
			{Name: "id", Kind: KindUUID},
			{Name: "name", Kind: KindString},
			{Name: "stage", Kind: KindString},
			{Name: "accountName", Kind: KindString},
			{Name: "nextActionAt", Kind: KindString},
			{Name: "nextActionNote", Kind: KindString},
		},
		build: func(r record) NextAction {
			return NextAction{
				ID:             r.id("id"),
				Name:           r.str("name"),
				Stage:          r.str("stage"),
				AccountName:    r.str("accountName"),
				NextActionAt:   r.str("nextActionAt"),
				NextActionNote: r.str("nextActionNote"),
			}
		},
	}

	DealHealthContract = Contract[DealHealth]{
		Name: "deal-health",
		Fields: []Field{
			{Name: "id", Kind: KindUUID},
			{Name: "name", Kind: KindString},
			{Name: "stage", Kind: KindString},
			{Name: "probability", Kind: KindNumber},
			{Name: "amount", Kind: KindNumber},
			{Name: "lastActivityAt", Kind: KindString},
			{Name: "healthScore", Kind: KindNumber},
		},
		build: func(r record) DealHealth {
			return DealHealth{
				ID:             r.id("id"),
				Name:           r.str("name"),
				Stage:          r.str("stage"),
				Probability:    r.num("probability"),
				Amount:         r.num("amount"),
				LastActivityAt: r.str("lastActivityAt"),
				HealthScore:    r.num("healthScore"),
			}
		},
	}

	ForecastRowContract = Contract[ForecastRow]{
		Name: "forecast-row",
		Fields: []Field{
			{Name: "ownerUserId", Kind: KindUUIDOrEmpty},
			{Name: "month", Kind: KindString},
			{Name: "dealCount", Kind: KindInteger},
			{Name: "pipelineAmount", Kind: KindNumber},
			{Name: "weightedAmount", Kind: KindNumber},
		},
		build: func(r record) ForecastRow {
			return ForecastRow{
				OwnerUserID:    r.str("ownerUserId"),
				Month:          r.str("month"),
				DealCount:      r.integer("dealCount"),
				PipelineAmount: r.num("pipelineAmount"),
				WeightedAmount: r.num("weightedAmount"),
			}
		},
	}

	LossReasonContract = Contract[LossReason]{
		Name: "loss-reason",
		Fields: []Field{
			{Name: "reason", Kind: KindString},
			{Name: "lostCount", Kind: KindInteger},
			{Name: "lostAmount", Kind: KindNumber},
		},
		build: func(r record) LossReason {
			return LossReason{
				Reason:     r.str("reason"),
				LostCount:  r.integer("lostCount"),
				LostAmount: r.num("lostAmount"),
			}
		},
	}

	DuplicateRecordContract = Contract[DuplicateRecord]{
		Name: "duplicate",
		Fields: []Field{
			{Name: "type", Kind: KindString},
			{Name: "primaryId", Kind: KindUUID},
			{Name: "duplicateId", Kind: KindUUID},
			{Name: "matchValue", Kind: KindString},
		},
		build: func(r record) DuplicateRecord {
			return DuplicateRecord{
				Type:        r.str("type"),
				PrimaryID:   r.id("primaryId"),
				DuplicateID: r.id("duplicateId"),
				MatchValue:  r.str("matchValue"),
			}
		},
	}

	IntegrationConnectionContract = Contract[IntegrationConnection]{
		Name: "integration-connection",
		Fields: []Field{
			{Name: "id", Kind: KindUUID},
			{Name: "userId", Kind: KindUUID},
			{Name: "provider", Kind: KindString},
			{Name: "integrationType", Kind: KindString},
			{Name: "externalAccountId", Kind: KindString},
			{Name: "status", Kind: KindString},
			{Name: "scopes", Kind: KindStringList},
			{Name: "expiresAt", Kind: KindString, Optional: true},
			{Name: "updatedAt", Kind: KindString},
		},
		build: func(r record) IntegrationConnection {
			return IntegrationConnection{
				ID:                r.id("id"),
				UserID:            r.id("userId"),
				Provider:          r.str("provider"),
				IntegrationType:   r.str("integrationType"),
				ExternalAccountID: r.str("externalAccountId"),
				Status:            ConnectionStatus(r.str("status")),
				Scopes:            r.strs("scopes"),
				ExpiresAt:         r.optStr("expiresAt"),
				UpdatedAt:         r.str("updatedAt"),
			}
		},
	}

	IntegrationEventContract = Contract[IntegrationEvent]{
		Name: "integration-event",
		Fields: []Field{
			{Name: "id", Kind: KindInteger},
			{Name: "provider", Kind: KindString},
			{Name: "integrationType", Kind: KindString},
			{Name: "externalEventId", Kind: KindString, Optional: true},
			{Name: "eventType", Kind: KindString},
			{Name: "payload", Kind: KindObject},
			{Name: "linkedAccountId", Kind: KindString, Optional: true},
			{Name: "linkedContactId", Kind: KindString, Optional: true},
			{Name: "linkedOpportunityId", Kind: KindString, Optional: true},
			{Name: "occurredAt", Kind: KindString},
		},
		build: func(r record) IntegrationEvent {
			return IntegrationEvent{
				ID:                  r.integer("id"),
				Provider:            r.str("provider"),
				IntegrationType:     r.str("integrationType"),
				ExternalEventID:     r.optStr("externalEventId"),
				EventType:           r.str("eventType"),
				Payload:             r.obj("payload"),
				LinkedAccountID:     r.optStr("linkedAccountId"),
				LinkedContactID:     r.optStr("linkedContactId"),
				LinkedOpportunityID: r.optStr("linkedOpportunityId"),
				OccurredAt:          r.str("occurredAt"),
			}
		},
	}

	ApprovalContract = Contract[Approval]{
		Name: "approval",
		Fields: []Field{
			{Name: "id", Kind: KindUUID},
			{Name: "entityType", Kind: KindString},
			{Name: "entityId", Kind: KindUUID},
			{Name: "requestedBy", Kind: KindUUID},
			{Name: "approverUserId", Kind: KindUUID},
			{Name: "status", Kind: KindString},
			{Name: "reason", Kind: KindString},
			{Name: "decisionNote", Kind: KindString, Optional: true},
			{Name: "decidedAt", Kind: KindString, Optional: true},
			{Name: "createdAt", Kind: KindString},
		},
		build: func(r record) Approval {
			return Approval{
				ID:             r.id("id"),
				EntityType:     r.str("entityType"),
				EntityID:       r.id("entityId"),
				RequestedBy:    r.id("requestedBy"),
				ApproverUserID: r.id("approverUserId"),
				Status:         ApprovalStatus(r.str("status")),
				Reason:         r.str("reason"),
				DecisionNote:   r.optStr("decisionNote"),
				DecidedAt:      r.optStr("decidedAt"),
				CreatedAt:      r.str("createdAt"),
			}
		},
	}
)

// Resource contracts, by the kind name used in Lookup.
var (
	KPI                    = KPIContract{Item: KPIItemContract}
	Pipeline               = ListContract[PipelineStage]{Name: "pipeline", Item: PipelineStageContract}
	NextActions            = ListContract[NextAction]{Name: "next-actions", Item: NextActionContract}
	DealHealthList         = ListContract[DealHealth]{Name: "deal-health", Item: DealHealthContract}
	Forecast               = ListContract[ForecastRow]{Name: "forecast", Item: ForecastRowContract}
	LossReasons            = ListContract[LossReason]{Name: "loss-reasons", Item: LossReasonContract}
	Duplicates             = ListContract[DuplicateRecord]{Name: "duplicates", Item: DuplicateRecordContract}
	IntegrationConnections = ListContract[IntegrationConnection]{Name: "integration-connections", Item: IntegrationConnectionContract}
	IntegrationEvents      = ListContract[IntegrationEvent]{Name: "integration-events", Item: IntegrationEventContract}
	Approvals              = ListContract[Approval]{Name: "approvals", Item: ApprovalContract}
)

// Validator checks an untyped payload against a resource contract.
type Validator interface {
	Kind() string
	Validate(raw any) (any, error)
}

var registry = map[string]Validator{}

func init() {
	for _, v := range []Validator{
		KPI, Pipeline, NextActions, DealHealthList, Forecast, LossReasons,
		Duplicates, IntegrationConnections, IntegrationEvents, Approvals,
	} {
		registry[v.Kind()] = v
	}
}

// Lookup returns the validator registered for kind.
func Lookup(kind string) (Validator, bool) {
	v, ok := registry[kind]
	return v, ok
}

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
