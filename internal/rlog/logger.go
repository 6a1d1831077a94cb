// Package rlog provides the two logging surfaces a node needs: Protocol,
// which emits the exact required log-line shapes of spec §6.3 (the
// system's observable output, not diagnostics), and Diag, a per-package
// diagnostic logger in the style of opd-ai-toxcore's crypto.LoggerHelper.
// Both sit on top of github.com/sirupsen/logrus.
package rlog

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// lineFormatter emits only the formatted message, no level or timestamp
// decoration: every Protocol line already carries its own bracketed
// timestamp (or, for the two "Message ..." shapes, none at all) per §4.5.
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(e.Message + "\n"), nil
}

// Protocol emits the required protocol log lines. It is deliberately not a
// general-purpose logger: every method corresponds to one line shape from
// §6.3.
type Protocol struct {
	logger *logrus.Logger
	clock  func() time.Time
}

// NewProtocol returns a Protocol writing to w — os.Stdout in production, a
// *bytes.Buffer in tests.
func NewProtocol(w io.Writer) *Protocol {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(lineFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return &Protocol{logger: logger, clock: time.Now}
}

// WithClock overrides the timestamp source; tests needing a deterministic
// [<ts>] prefix inject a fixed clock.
func (p *Protocol) WithClock(clock func() time.Time) *Protocol {
	p.clock = clock
	return p
}

func (p *Protocol) ts() string {
	return FormatTimestamp(p.clock())
}

// FormatTimestamp renders t as Unix seconds, three decimals, right-padded
// to three fractional digits, per §4.5.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 3, 64)
}

// MessageSent logs "Message sent from Node <self> to Node <n>" — no
// timestamp prefix, per §6.3.
func (p *Protocol) MessageSent(self, n int) {
	p.logger.Infof("Message sent from Node %d to Node %d", self, n)
}

// MessageReceived logs "Message received at Node <self> from Node <peer>".
func (p *Protocol) MessageReceived(self, peer int) {
	p.logger.Infof("Message received at Node %d from Node %d", self, peer)
}

// RoutingTable logs the header line plus the already-rendered body
// (routing.Table.Render's output).
func (p *Protocol) RoutingTable(self int, body string) {
	p.logger.Infof("[%s] Node %d Routing Table\n%s", p.ts(), self, body)
}

// Topology logs the header line plus the already-rendered body
// (topology.Database.Render's output).
func (p *Protocol) Topology(self int, body string) {
	p.logger.Infof("[%s] Node %d Network Topology\n%s", p.ts(), self, body)
}

// CostUpdated logs "[<ts>] Node <peer> cost updated to <cost>".
func (p *Protocol) CostUpdated(peer int, cost float64) {
	p.logger.Infof("[%s] Node %d cost updated to %s", p.ts(), peer, formatCost(cost))
}

// LinkValueSent logs the COS-sent line.
func (p *Protocol) LinkValueSent(self, peer int) {
	p.logger.Infof("[%s] Link value message sent from Node %d to Node %d", p.ts(), self, peer)
}

// LinkValueReceived logs the COS-received line.
func (p *Protocol) LinkValueReceived(self, peer int) {
	p.logger.Infof("[%s] Link value message received at Node %d from Node %d", p.ts(), self, peer)
}

// LSASent logs the per-neighbor LSA-sent line.
func (p *Protocol) LSASent(origin int, seq float64, n int) {
	p.logger.Infof("[%s] LSA of Node %d with sequence number %s sent to Node %d", p.ts(), origin, formatSeq(seq), n)
}

// LSAReceived logs the LSA-received line.
func (p *Protocol) LSAReceived(origin int, seq float64, peer int) {
	p.logger.Infof("[%s] LSA of Node %d with sequence number %s received from Node %d", p.ts(), origin, formatSeq(seq), peer)
}

// DuplicateLSA logs the duplicate-flood header plus three continuation
// lines identifying the origin, sequence, and the neighbor it arrived
// from a second time.
func (p *Protocol) DuplicateLSA(origin int, seq float64, sender int) {
	p.logger.Infof("[%s] DUPLICATE LSA packet received AND DROPPED:\n- LSA of Node %d\n- Sequence number %s\n- Received from Node %d",
		p.ts(), origin, formatSeq(seq), sender)
}

func formatCost(cost float64) string {
	if math.IsInf(cost, 1) {
		return "Infinity"
	}
	return fmt.Sprintf("%d", int64(cost))
}

func formatSeq(seq float64) string {
	return strconv.FormatFloat(seq, 'f', -1, 64)
}

// Diag is a thin per-package wrapper around logrus for internal
// diagnostics (decode errors, transport errors) that are not part of the
// required Protocol contract, modeled on opd-ai-toxcore's
// crypto.LoggerHelper standardized-field convention.
type Diag struct {
	fields logrus.Fields
}

// NewDiag returns a Diag tagged with package/function fields.
func NewDiag(pkg, function string) *Diag {
	return &Diag{fields: logrus.Fields{"package": pkg, "function": function}}
}

// WithField returns a copy of d with an additional field set.
func (d *Diag) WithField(key string, value interface{}) *Diag {
	fields := make(logrus.Fields, len(d.fields)+1)
	for k, v := range d.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Diag{fields: fields}
}

func (d *Diag) Debug(msg string) { logrus.WithFields(d.fields).Debug(msg) }
func (d *Diag) Warn(msg string)  { logrus.WithFields(d.fields).Warn(msg) }
func (d *Diag) Error(msg string) { logrus.WithFields(d.fields).Error(msg) }
