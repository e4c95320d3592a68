// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package audit

import (
	"context"
	"errors"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const loggerName = "drive-labels:audit"

var (
	_ batch.AuditSink = LoggerSink{}
	_ batch.AuditSink = multi{}
)

// LoggerSink writes every audit record as an INFO line of the logger found in the context.
type LoggerSink struct{}

func (LoggerSink) Record(ctx context.Context, actionType, targetID, description string) error {
	logger.FromContext(ctx).WithName(loggerName).Info("audit record",
		"action", actionType,
		"targetId", targetID,
		"description", description,
	)
	return nil
}

type multi []batch.AuditSink

// Multi returns a sink forwarding each record to every non nil sink. All the sinks are
// always called and their errors are joined.
func Multi(sinks ...batch.AuditSink) batch.AuditSink {
	m := make(multi, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			m = append(m, sink)
		}
	}
	return m
}

func (m multi) Record(ctx context.Context, actionType, targetID, description string) error {
	errs := make([]error, 0)
	for _, sink := range m {
		if err := sink.Record(ctx, actionType, targetID, description); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
