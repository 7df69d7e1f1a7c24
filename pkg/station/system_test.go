//go:build system

package station_test

import (
	stdcontext "context"
	"io"
	"net/http"
	"net/http/httptest"
	"qrscan/pkg/config"
	"qrscan/pkg/context"
	"qrscan/pkg/hardware"
	"qrscan/pkg/metrics"
	"qrscan/pkg/sink"
	"qrscan/pkg/station"
	"qrscan/pkg/submit"
	"qrscan/pkg/ui"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
)

type running struct {
	ctrl   *station.Controller
	out    *gbytes.Buffer
	input  *io.PipeWriter
	store  *sink.Store
	rec    *metrics.Recorder
	cancel stdcontext.CancelFunc
}

// startStation runs a controller with a console presenter against a local sink.
func startStation(source config.SourceType, codes []string, failStatus int) *running {
	store := sink.NewStore(0)
	srv := httptest.NewServer(sink.NewRouter(sink.NewHandler(store, failStatus), sink.DefaultPath))
	DeferCleanup(srv.Close)

	cfg := &config.Config{
		Endpoint: srv.URL + sink.DefaultPath,
		Source:   source,
		Codes:    codes,
	}
	rec := metrics.NewRecorder(false)
	wedge := ui.NewWedge()
	src, err := hardware.New(cfg, wedge.Reader())
	Expect(err).ToNot(HaveOccurred())

	inR, inW := io.Pipe()
	out := gbytes.NewBuffer()
	console := ui.NewConsole(inR, out, wedge)
	ctrl := station.New(cfg, src, submit.New(cfg, rec), console)

	ctx, cancel := context.NewContext(stdcontext.Background(), cfg, rec).WithCancel()
	go func() { _ = ctrl.Run(ctx) }()
	go func() { _ = console.Run(ctrl) }()
	DeferCleanup(func() {
		cancel()
		inW.Close()
		Eventually(ctrl.Done()).Should(BeClosed())
	})

	return &running{ctrl: ctrl, out: out, input: inW, store: store, rec: rec, cancel: cancel}
}

func (r *running) typeLine(line string) {
	_, err := io.WriteString(r.input, line+"\n")
	Expect(err).ToNot(HaveOccurred())
}

var _ = Describe("Scanning station", func() {
	SetDefaultEventuallyTimeout(5 * time.Second)

	It("accumulates wedge scans and submits them to the sink", func() {
		st := startStation(config.SourceKeyboard, nil, 0)

		By("scanning a warehouse code")
		st.typeLine("/warehouse")
		Eventually(st.out).Should(gbytes.Say(`Scanning Warehouse codes with Keyboard`))
		st.typeLine("WH1")
		Eventually(st.out).Should(gbytes.Say(`Warehouse: WH1`))

		By("scanning two products without re-selecting the mode")
		st.typeLine("/product")
		Eventually(st.out).Should(gbytes.Say(`Scanning Product codes`))
		st.typeLine("A123")
		st.typeLine("B456")
		Eventually(st.out).Should(gbytes.Say(`2\. B456`))

		By("submitting")
		st.typeLine("/submit")
		Eventually(st.out).Should(gbytes.Say(`\[ok\] data sent`))
		subs := st.store.List()
		Expect(subs).To(HaveLen(1))
		Expect(subs[0].Data).To(Equal("A123,B456"))
		Expect(subs[0].WarehouseCode).To(Equal("WH1"))
		Expect(st.rec.Get("Submit")).ToNot(BeNil())

		By("clearing and refusing an empty submission")
		st.typeLine("/clear")
		Eventually(st.out).Should(gbytes.Say(`\[--\] list cleared`))
		st.typeLine("/submit")
		Eventually(st.out).Should(gbytes.Say(`\[!!\] no data to send`))
		Expect(st.store.Len()).To(Equal(1))

		By("exiting")
		st.typeLine("/exit")
		Eventually(st.ctrl.Done()).Should(BeClosed())
	})

	It("keeps the scanned data when the endpoint rejects it", func() {
		st := startStation(config.SourceCore, []string{"A1"}, http.StatusServiceUnavailable)

		st.ctrl.Dispatch(station.ScanProduct)
		Eventually(st.out).Should(gbytes.Say(`1\. A1`))
		st.ctrl.Dispatch(station.Submit)
		Eventually(st.out).Should(gbytes.Say(`\[!!\] send failed: Service Unavailable`))
		Eventually(st.out).Should(gbytes.Say(`1\. A1`))
		Expect(st.store.Len()).To(BeZero())
	})
})
