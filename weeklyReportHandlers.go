package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/models/reports"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/mmdatafocus/mealplan_backend/workflow"
	"github.com/sirupsen/logrus"
)

// reportService is what the HTTP layer needs from workflow.WeeklyReportService.
type reportService interface {
	ResolveWeekStart(value string) (time.Time, error)
	Generate(ctx context.Context, householdId string, weekStart time.Time) (*reports.Result, error)
	GetReport(ctx context.Context, householdId string, weekStart time.Time) (*models.WeeklyReport, error)
	MarkViewed(ctx context.Context, householdId string, weekStart time.Time) (*models.WeeklyReport, error)
	Trends(ctx context.Context, householdId string, metric models.TrendMetric, weeks int) ([]models.ReportTrend, error)
	Export(ctx context.Context, w io.Writer, householdId string, weekStart time.Time) (*models.WeeklyReport, error)
	ProcessMessage(ctx context.Context, msg config.WeeklyReportMessage) (*reports.Result, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report request field names the way clients send them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type weeklyReportRequest struct {
	HouseholdId   string `json:"householdId" form:"householdId" validate:"required"`
	WeekStartDate string `json:"weekStartDate" form:"weekStartDate" validate:"omitempty,datetime=2006-01-02"`
}

type trendsRequest struct {
	HouseholdId string `json:"householdId" form:"householdId" validate:"required"`
	Metric      string `json:"metric" form:"metric" validate:"required"`
	Weeks       int    `json:"weeks" form:"weeks" validate:"omitempty,min=1"`
}

type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func (r *weeklyReportRequest) normalize() {
	r.HouseholdId = strings.TrimSpace(r.HouseholdId)
	r.WeekStartDate = strings.TrimSpace(r.WeekStartDate)
}

// bindReportRequest binds from the JSON body on POST and from the query string otherwise.
func bindReportRequest(c *gin.Context, requireWeek bool) (weeklyReportRequest, error) {
	var req weeklyReportRequest
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		return req, errors.New("invalid request")
	}
	req.normalize()
	if err := validate.Struct(req); err != nil {
		return req, errors.New(utils.ValidationMessage(err))
	}
	if requireWeek && req.WeekStartDate == "" {
		return req, errors.New("weekStartDate is required")
	}
	return req, nil
}

func reportResponse(report *models.WeeklyReport, insights []models.ReportInsight) gin.H {
	if insights == nil {
		insights = report.Insights
	}
	if insights == nil {
		insights = []models.ReportInsight{}
	}
	return gin.H{"report": report, "insights": insights}
}

// generateWeeklyReportHandler computes (or recomputes) one report.
// 201 on first computation, 200 on recomputation.
func generateWeeklyReportHandler(svc reportService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindReportRequest(c, false)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		weekStart, err := svc.ResolveWeekStart(req.WeekStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := utils.SetTriggerInContext(c.Request.Context(), "http")
		result, err := svc.Generate(ctx, req.HouseholdId, weekStart)
		if err != nil {
			config.LogError(logger, "weeklyReportHandlers.go", "generateWeeklyReportHandler", "Generate", req, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp := reportResponse(result.Report, result.Insights)
		if len(result.Warnings) > 0 {
			resp["warnings"] = result.Warnings
		}
		if result.Created {
			resp["created"] = true
			c.JSON(http.StatusCreated, resp)
			return
		}
		resp["updated"] = true
		c.JSON(http.StatusOK, resp)
	}
}

func getWeeklyReportHandler(svc reportService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindReportRequest(c, false)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		weekStart, err := svc.ResolveWeekStart(req.WeekStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := svc.GetReport(c.Request.Context(), req.HouseholdId, weekStart)
		if err != nil {
			writeLookupError(c, logger, "getWeeklyReportHandler", req, err)
			return
		}
		c.JSON(http.StatusOK, reportResponse(report, nil))
	}
}

func markWeeklyReportViewedHandler(svc reportService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindReportRequest(c, true)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		weekStart, err := svc.ResolveWeekStart(req.WeekStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := svc.MarkViewed(c.Request.Context(), req.HouseholdId, weekStart)
		if err != nil {
			writeLookupError(c, logger, "markWeeklyReportViewedHandler", req, err)
			return
		}
		c.JSON(http.StatusOK, reportResponse(report, nil))
	}
}

func reportTrendsHandler(svc reportService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trendsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		req.HouseholdId = strings.TrimSpace(req.HouseholdId)
		if err := validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ValidationMessage(err)})
			return
		}
		metric := models.TrendMetric(strings.TrimSpace(req.Metric))
		if !metric.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown metric %q", req.Metric)})
			return
		}
		points, err := svc.Trends(c.Request.Context(), req.HouseholdId, metric, req.Weeks)
		if err != nil {
			config.LogError(logger, "weeklyReportHandlers.go", "reportTrendsHandler", "Trends", req, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if points == nil {
			points = []models.ReportTrend{}
		}
		c.JSON(http.StatusOK, gin.H{"householdId": req.HouseholdId, "metric": metric, "points": points})
	}
}

func exportWeeklyReportHandler(svc reportService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindReportRequest(c, true)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		weekStart, err := svc.ResolveWeekStart(req.WeekStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// buffer first so a failure can still be reported as JSON
		var buf bytes.Buffer
		report, err := svc.Export(c.Request.Context(), &buf, req.HouseholdId, weekStart)
		if err != nil {
			writeLookupError(c, logger, "exportWeeklyReportHandler", req, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.ExportFilename(report)))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

// weeklyReportPubSubHandler is the Pub/Sub push endpoint. Malformed messages are acked with 204
// so they are not redelivered; generation failures return 500 so Pub/Sub retries.
func weeklyReportPubSubHandler(svc reportService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg PubSubMessage

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "weeklyReportHandlers.go", "weeklyReportPubSubHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "weeklyReportHandlers.go", "weeklyReportPubSubHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		var m config.WeeklyReportMessage
		if err := json.Unmarshal(msg.Message.Data, &m); err != nil {
			config.LogError(logger, "weeklyReportHandlers.go", "weeklyReportPubSubHandler", "Unmarshal pubsub message", string(msg.Message.Data), err)
			c.Status(http.StatusNoContent)
			return
		}

		// prefer the payload's correlation id; fall back to the Pub/Sub message id
		if m.CorrelationId == "" {
			m.CorrelationId = msg.Message.ID
		}

		result, err := svc.ProcessMessage(c.Request.Context(), m)
		if err != nil {
			if errors.Is(err, workflow.ErrInvalidMessage) {
				config.LogError(logger, "weeklyReportHandlers.go", "weeklyReportPubSubHandler", "Invalid pubsub message", m, err)
				c.Status(http.StatusNoContent)
				return
			}
			logger.WithFields(logrus.Fields{
				"field":          "weeklyReportPubSubHandler",
				"household_id":   m.HouseholdId,
				"week_start":     m.WeekStartDate,
				"message_id":     msg.Message.ID,
				"correlation_id": m.CorrelationId,
			}).Error("pubsub processing failed: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}

		logger.WithFields(logrus.Fields{
			"field":          "weeklyReportPubSubHandler",
			"household_id":   m.HouseholdId,
			"report_id":      result.Report.ID,
			"message_id":     msg.Message.ID,
			"correlation_id": m.CorrelationId,
		}).Info("weekly report generated from pubsub")
		c.Status(http.StatusNoContent)
	}
}

func writeLookupError(c *gin.Context, logger *logrus.Logger, funcName string, req weeklyReportRequest, err error) {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "weekly report not found"})
		return
	}
	config.LogError(logger, "weeklyReportHandlers.go", funcName, "lookup", req, err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func registerReportRoutes(r gin.IRouter, svc reportService, logger *logrus.Logger) {
	r.POST("/reports/weekly", generateWeeklyReportHandler(svc, logger))
	r.GET("/reports/weekly", getWeeklyReportHandler(svc, logger))
	r.POST("/reports/weekly/viewed", markWeeklyReportViewedHandler(svc, logger))
	r.GET("/reports/weekly/export", exportWeeklyReportHandler(svc, logger))
	r.GET("/reports/trends", reportTrendsHandler(svc, logger))
	r.POST("/pubsub", weeklyReportPubSubHandler(svc, logger))
}
