package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/pipeline"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
	"github.com/noah-isme/edu-erp-api/pkg/export"
)

// Report names.
const (
	ReportFunnel     = "funnel"
	ReportCounselors = "counselors"
)

type userLister interface {
	ListUsers(ctx context.Context, roleID string) []models.User
}

// ReportFile is a rendered departmental report.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders pipeline reports as CSV or PDF.
type ReportService struct {
	leads  leadLister
	users  userLister
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(leads leadLister, users userLister, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{leads: leads, users: users, logger: logger, now: time.Now}
}

// Render builds the named report in the requested format.
func (s *ReportService) Render(ctx context.Context, report, format string) (*ReportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnsupported, "format must be csv or pdf")
	}
	var data export.Dataset
	switch report {
	case ReportFunnel:
		data = s.funnelDataset(ctx)
	case ReportCounselors:
		data = s.counselorDataset(ctx)
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	out, err := export.RendererFor(f).Render(data)
	if err != nil {
		s.logger.Error("report render failed", zap.String("report", report), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &ReportFile{
		Filename:    fmt.Sprintf("%s-%s.%s", report, s.now().Format("20060102"), f),
		ContentType: f.ContentType(),
		Data:        out,
	}, nil
}

func (s *ReportService) funnelDataset(ctx context.Context) export.Dataset {
	data := export.Dataset{Title: "Lead Funnel", Headers: []string{"stage", "count", "ratio"}}
	for _, stage := range pipeline.Funnel(s.leads.List(ctx)) {
		data.Rows = append(data.Rows, map[string]string{
			"stage": string(stage.Stage),
			"count": strconv.Itoa(stage.Count),
			"ratio": strconv.FormatFloat(stage.Ratio, 'f', 2, 64),
		})
	}
	return data
}

// counselorDataset lists every counselor, then any other owner holding leads, with per-stage counts.
func (s *ReportService) counselorDataset(ctx context.Context) export.Dataset {
	headers := []string{"counselor"}
	for _, stage := range models.LeadStages {
		headers = append(headers, string(stage))
	}
	headers = append(headers, "total")
	data := export.Dataset{Title: "Counselor Workload", Headers: headers}

	counts := make(map[string]map[models.LeadStage]int)
	for _, lead := range s.leads.List(ctx) {
		if counts[lead.AssignedUserID] == nil {
			counts[lead.AssignedUserID] = make(map[models.LeadStage]int)
		}
		counts[lead.AssignedUserID][lead.Stage]++
	}

	names := make(map[string]string)
	order := make([]string, 0)
	for _, u := range s.users.ListUsers(ctx, "") {
		names[u.ID] = u.Name
		if u.IsCounselor() {
			order = append(order, u.ID)
		}
	}
	listed := make(map[string]bool, len(order))
	for _, id := range order {
		listed[id] = true
	}
	others := make([]string, 0)
	for id := range counts {
		if !listed[id] {
			others = append(others, id)
		}
	}
	sort.Strings(others)
	order = append(order, others...)

	for _, id := range order {
		name := names[id]
		if name == "" {
			name = id
		}
		row := map[string]string{"counselor": name}
		total := 0
		for _, stage := range models.LeadStages {
			n := counts[id][stage]
			total += n
			row[string(stage)] = strconv.Itoa(n)
		}
		row["total"] = strconv.Itoa(total)
		data.Rows = append(data.Rows, row)
	}
	return data
}
