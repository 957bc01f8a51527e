package simulation

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/cellsim/internal/dynamo"
)

const progressSteps = 10

// progress logs solver position at Debug every tenth of the span.
type progress struct {
	log    logrus.FieldLogger
	t0, tf float64
	next   int
}

func newProgress(log logrus.FieldLogger, t0, tf float64) *progress {
	return &progress{log: log, t0: t0, tf: tf, next: 1}
}

func (p *progress) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	frac := (t - p.t0) / (p.tf - p.t0)
	for p.next <= progressSteps && frac >= float64(p.next)/progressSteps {
		p.log.Debugf("t=%.1f (%d%%)", t, p.next*100/progressSteps)
		p.next++
	}
}
