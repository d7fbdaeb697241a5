package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tejit/billing/internal/domain/ingest"
)

// ImportJobModel is the persistence model for the ImportJob aggregate.
type ImportJobModel struct {
	AggregateModel
	ClientID         uint              `gorm:"not null;index"`
	SourceKind       ingest.SourceKind `gorm:"type:varchar(20);not null"`
	SourceHandle     string            `gorm:"type:varchar(512)"`
	PeriodStart      time.Time         `gorm:"not null"`
	PeriodEnd        time.Time         `gorm:"not null"`
	AccountScope     string            `gorm:"type:jsonb;default:'[]'"`
	Status           ingest.JobStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalRecords     int               `gorm:"not null;default:0"`
	ProcessedRecords int               `gorm:"not null;default:0"`
	FailedRecords    int               `gorm:"not null;default:0"`
	ErrorSummary     string            `gorm:"type:text"`
	ErrorSamples     string            `gorm:"type:jsonb;default:'[]'"`
	StartedAt        *time.Time        `gorm:"type:timestamptz"`
	CompletedAt      *time.Time        `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ImportJobModel) TableName() string {
	return "import_jobs"
}

// ToDomain converts the persistence model to a domain ImportJob.
func (m *ImportJobModel) ToDomain() *ingest.ImportJob {
	job := &ingest.ImportJob{
		ClientID:         m.ClientID,
		SourceKind:       m.SourceKind,
		SourceHandle:     m.SourceHandle,
		PeriodStart:      m.PeriodStart,
		PeriodEnd:        m.PeriodEnd,
		Status:           m.Status,
		TotalRecords:     m.TotalRecords,
		ProcessedRecords: m.ProcessedRecords,
		FailedRecords:    m.FailedRecords,
		ErrorSummary:     m.ErrorSummary,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
	}
	m.PopulateAggregateRoot(&job.BaseAggregateRoot)

	job.AccountScope = []string{}
	if m.AccountScope != "" {
		_ = json.Unmarshal([]byte(m.AccountScope), &job.AccountScope)
	}
	job.ErrorSamples = []ingest.RowError{}
	if m.ErrorSamples != "" {
		_ = json.Unmarshal([]byte(m.ErrorSamples), &job.ErrorSamples)
	}
	return job
}

// FromDomain populates the persistence model from a domain ImportJob.
func (m *ImportJobModel) FromDomain(j *ingest.ImportJob) {
	m.FromDomainAggregateRoot(j.BaseAggregateRoot)
	m.ClientID = j.ClientID
	m.SourceKind = j.SourceKind
	m.SourceHandle = j.SourceHandle
	m.PeriodStart = j.PeriodStart
	m.PeriodEnd = j.PeriodEnd
	m.Status = j.Status
	m.TotalRecords = j.TotalRecords
	m.ProcessedRecords = j.ProcessedRecords
	m.FailedRecords = j.FailedRecords
	m.ErrorSummary = j.ErrorSummary
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt

	m.AccountScope = marshalOrEmptyArray(j.AccountScope)
	m.ErrorSamples = marshalOrEmptyArray(j.ErrorSamples)
}

// ImportJobModelFromDomain creates a new persistence model from a domain ImportJob.
func ImportJobModelFromDomain(j *ingest.ImportJob) *ImportJobModel {
	m := &ImportJobModel{}
	m.FromDomain(j)
	return m
}

func marshalOrEmptyArray(v any) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

// UsageRecordModel is the persistence model for a validated usage record.
// Identity is the (job, ordinal) pair; records have no cross-job identity.
type UsageRecordModel struct {
	JobID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Ordinal          int             `gorm:"primaryKey;autoIncrement:false"`
	AccountID        string          `gorm:"type:varchar(64);index"`
	ServiceCode      string          `gorm:"type:varchar(64)"`
	UsageType        string          `gorm:"type:varchar(128);not null"`
	Operation        string          `gorm:"type:varchar(128)"`
	ResourceID       string          `gorm:"type:varchar(255)"`
	UsageStart       *time.Time      `gorm:"type:timestamptz"`
	UsageEnd         *time.Time      `gorm:"type:timestamptz"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Rate             decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Cost             decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Currency         string          `gorm:"type:varchar(3)"`
	Region           string          `gorm:"type:varchar(64)"`
	AvailabilityZone string          `gorm:"type:varchar(64)"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UsageRecordModel) TableName() string {
	return "usage_records"
}

// ToDomain converts the persistence model to a domain UsageRecord.
func (m *UsageRecordModel) ToDomain() *ingest.UsageRecord {
	return &ingest.UsageRecord{
		JobID:            m.JobID,
		Ordinal:          m.Ordinal,
		AccountID:        m.AccountID,
		ServiceCode:      m.ServiceCode,
		UsageType:        m.UsageType,
		Operation:        m.Operation,
		ResourceID:       m.ResourceID,
		UsageStart:       m.UsageStart,
		UsageEnd:         m.UsageEnd,
		Quantity:         m.Quantity,
		Rate:             m.Rate,
		Cost:             m.Cost,
		Currency:         m.Currency,
		Region:           m.Region,
		AvailabilityZone: m.AvailabilityZone,
	}
}

// FromDomain populates the persistence model from a domain UsageRecord.
func (m *UsageRecordModel) FromDomain(r *ingest.UsageRecord) {
	m.JobID = r.JobID
	m.Ordinal = r.Ordinal
	m.AccountID = r.AccountID
	m.ServiceCode = r.ServiceCode
	m.UsageType = r.UsageType
	m.Operation = r.Operation
	m.ResourceID = r.ResourceID
	m.UsageStart = r.UsageStart
	m.UsageEnd = r.UsageEnd
	m.Quantity = r.Quantity
	m.Rate = r.Rate
	m.Cost = r.Cost
	m.Currency = r.Currency
	m.Region = r.Region
	m.AvailabilityZone = r.AvailabilityZone
}

// UsageRecordModelFromDomain creates a new persistence model from a domain UsageRecord.
func UsageRecordModelFromDomain(r *ingest.UsageRecord) *UsageRecordModel {
	m := &UsageRecordModel{}
	m.FromDomain(r)
	return m
}
