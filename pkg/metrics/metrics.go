package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AgreementsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "inkpact", Name: "agreements_created_total", Help: "Number of agreements created."},
	)
	SignaturesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpact", Name: "signatures_recorded_total", Help: "Number of signature operations by outcome."},
		[]string{"outcome"},
	)
	PDFRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpact", Name: "pdf_renders_total", Help: "Number of agreement PDF renders by outcome."},
		[]string{"outcome"},
	)
	InvitationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpact", Name: "invitations_dispatched_total", Help: "Number of invitation emails dispatched by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpact", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpact", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AgreementsCreated)
	reg.MustRegister(SignaturesRecorded)
	reg.MustRegister(PDFRenders)
	reg.MustRegister(InvitationsDispatched)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
