// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/courseguard/courseguard/internal/audit"
)

const (
	auditDefaultLimit = 100
	auditMaxLimit     = 1000
)

// AuditEvents returns stored audit events, newest first. Admin only.
//
// Query parameters: type (repeatable), user_id, video_id, session_id,
// start, end (RFC 3339), limit, offset.
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	events, err := h.audits.Query(r.Context(), filter)
	if err != nil {
		rw.InternalError("audit query failed")
		return
	}
	total, err := h.audits.Count(r.Context(), filter)
	if err != nil {
		rw.InternalError("audit query failed")
		return
	}

	rw.Success(map[string]interface{}{
		"events": events,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func auditFilterFromQuery(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		UserID:    q.Get("user_id"),
		VideoID:   q.Get("video_id"),
		SessionID: q.Get("session_id"),
		Limit:     auditDefaultLimit,
	}

	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EventType(t))
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, errInvalidQueryParam("limit")
		}
		if limit > auditMaxLimit {
			limit = auditMaxLimit
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errInvalidQueryParam("offset")
		}
		filter.Offset = offset
	}
	if v := q.Get("start"); v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidQueryParam("start")
		}
		filter.StartTime = &start
	}
	if v := q.Get("end"); v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidQueryParam("end")
		}
		filter.EndTime = &end
	}

	return filter, nil
}

type queryParamError string

func (e queryParamError) Error() string {
	return "invalid query parameter: " + string(e)
}

func errInvalidQueryParam(name string) error {
	return queryParamError(name)
}
