// Package server publishes the depot documents over HTTP: the static front
// end, the report and history documents, and an HTML rendering of the report.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/etnz/depot"
	"github.com/etnz/depot/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Options tells the server where documents are.
type Options struct {
	Static      string       // directory served at /, none when empty
	ReportFile  string       // report document, used when the store has no snapshot
	HistoryFile string       // history document
	Store       *store.Store // optional snapshot store
}

type Server struct {
	opts Options
	e    *echo.Echo
	md   goldmark.Markdown
}

// New returns a server with its routes registered.
func New(opts Options) *Server {
	s := &Server{
		opts: opts,
		e:    echo.New(),
		md:   goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.Debug().Int("status", v.Status).Str("uri", v.URI).Msg("request")
			} else {
				log.Warn().Err(v.Error).Int("status", v.Status).Str("uri", v.URI).Msg("request")
			}
			return nil
		},
	}))
	s.e.Use(middleware.Recover())

	s.e.GET("/health", s.health)
	s.e.GET("/api/report", s.report)
	s.e.GET("/api/report/:id", s.snapshot)
	s.e.GET("/api/history", s.history)
	s.e.GET("/report", s.reportPage)
	if opts.Static != "" {
		s.e.Static("/", opts.Static)
	}
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.e }

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving")
		errc <- s.e.Start(addr)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.e.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// latestReport returns the latest report document, from the store first.
func (s *Server) latestReport(ctx context.Context) ([]byte, error) {
	if s.opts.Store != nil {
		snap, err := s.opts.Store.LatestSnapshot(ctx)
		if err == nil {
			return snap.Payload, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if s.opts.ReportFile == "" {
		return nil, store.ErrNotFound
	}
	content, err := os.ReadFile(s.opts.ReportFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	return content, err
}

func httpError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no report yet")
	}
	return err
}

func (s *Server) report(c echo.Context) error {
	doc, err := s.latestReport(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSONBlob(http.StatusOK, doc)
}

func (s *Server) snapshot(c echo.Context) error {
	if s.opts.Store == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no snapshot store")
	}
	snap, err := s.opts.Store.Snapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSONBlob(http.StatusOK, snap.Payload)
}

func (s *Server) history(c echo.Context) error {
	if s.opts.HistoryFile == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no history")
	}
	if _, err := os.Stat(s.opts.HistoryFile); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no history yet")
	}
	return c.File(s.opts.HistoryFile)
}

func (s *Server) reportPage(c echo.Context) error {
	doc, err := s.latestReport(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	md, err := documentMarkdown(doc)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	body.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Depot</title></head><body>\n")
	if err := s.md.Convert([]byte(md), &body); err != nil {
		return err
	}
	body.WriteString("</body></html>\n")
	return c.HTMLBlob(http.StatusOK, body.Bytes())
}

// documentMarkdown renders a report document as a markdown table, columns in
// document order.
func documentMarkdown(doc []byte) (string, error) {
	var d struct {
		ReferenceDate string           `json:"reference_date"`
		MonthDate     string           `json:"reference_date_month"`
		Time          string           `json:"time"`
		Data          []map[string]any `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return "", fmt.Errorf("invalid report document: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Depot\n\nReference %s", d.ReferenceDate)
	if d.MonthDate != "" {
		fmt.Fprintf(&b, ", month end %s", d.MonthDate)
	}
	if d.Time != "" {
		fmt.Fprintf(&b, ", polled %s", d.Time)
	}
	b.WriteString("\n\n")
	if len(d.Data) == 0 {
		b.WriteString("No instrument to report.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "| %s |\n", strings.Join(depot.ReportColumns, " | "))
	b.WriteString("|:---|" + strings.Repeat("---:|", len(depot.ReportColumns)-1) + "\n")
	for _, row := range d.Data {
		cells := make([]string, len(depot.ReportColumns))
		for i, col := range depot.ReportColumns {
			if v, ok := row[col]; ok {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}
	return b.String(), nil
}
