package detector

import (
	"context"
	"time"
)

// Caller invokes a stored procedure.
type Caller interface {
	Call(ctx context.Context, procedure string) error
}

// ProcedureDetector runs detection as a warehouse stored procedure.
type ProcedureDetector struct {
	caller    Caller
	procedure string
}

func NewProcedureDetector(caller Caller, procedure string) *ProcedureDetector {
	return &ProcedureDetector{caller: caller, procedure: procedure}
}

func (d *ProcedureDetector) RunDetection(ctx context.Context) (*Receipt, error) {
	requestedAt := time.Now().UTC()
	if err := d.caller.Call(ctx, d.procedure); err != nil {
		return nil, err
	}
	return &Receipt{Status: StatusCompleted, RequestedAt: requestedAt}, nil
}
