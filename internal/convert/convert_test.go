package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"diagconv/internal/cache"
	"diagconv/internal/diag"
	"diagconv/internal/mdd"
	"diagconv/internal/yamlfmt"
)

const ecuODX = `<?xml version="1.0" encoding="UTF-8"?>
<ODX xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" MODEL-VERSION="2.2.0" VERSION="3.1">
  <DIAG-LAYER-CONTAINER ID="DLC.Brake">
    <SHORT-NAME>Brake</SHORT-NAME>
    <BASE-VARIANTS>
      <BASE-VARIANT ID="BV.Brake">
        <SHORT-NAME>Brake_Base</SHORT-NAME>
        <DIAG-DATA-DICTIONARY-SPEC>
          <DTC-DOPS>
            <DTC-DOP ID="DOP.DTC">
              <SHORT-NAME>DTC_DOP</SHORT-NAME>
              <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>24</BIT-LENGTH></DIAG-CODED-TYPE>
              <PHYSICAL-TYPE BASE-DATA-TYPE="A_UINT32"/>
              <COMPU-METHOD><CATEGORY>IDENTICAL</CATEGORY></COMPU-METHOD>
              <DTCS>
                <DTC ID="DTC.C0035">
                  <SHORT-NAME>C0035</SHORT-NAME>
                  <TROUBLE-CODE>16437</TROUBLE-CODE>
                  <TEXT TI="T.WSS">Wheel speed sensor</TEXT>
                </DTC>
              </DTCS>
            </DTC-DOP>
          </DTC-DOPS>
          <DATA-OBJECT-PROPS>
            <DATA-OBJECT-PROP ID="DOP.Speed">
              <SHORT-NAME>DOP_Speed</SHORT-NAME>
              <COMPU-METHOD><CATEGORY>IDENTICAL</CATEGORY></COMPU-METHOD>
              <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>16</BIT-LENGTH></DIAG-CODED-TYPE>
              <PHYSICAL-TYPE BASE-DATA-TYPE="A_UINT32"/>
            </DATA-OBJECT-PROP>
          </DATA-OBJECT-PROPS>
        </DIAG-DATA-DICTIONARY-SPEC>
        <DIAG-COMMS>
          <DIAG-SERVICE ID="DS.ReadSpeed" SEMANTIC="DATA">
            <SHORT-NAME>ReadSpeed</SHORT-NAME>
            <REQUEST-REF ID-REF="RQ.ReadSpeed"/>
            <POS-RESPONSE-REFS><POS-RESPONSE-REF ID-REF="PR.ReadSpeed"/></POS-RESPONSE-REFS>
          </DIAG-SERVICE>
          <SINGLE-ECU-JOB ID="JOB.Flash">
            <SHORT-NAME>FlashJob</SHORT-NAME>
            <PROG-CODES>
              <PROG-CODE>
                <CODE-FILE>flash.jar</CODE-FILE>
                <SYNTAX>JAR</SYNTAX>
                <ENTRYPOINT>com.example.Flash</ENTRYPOINT>
              </PROG-CODE>
            </PROG-CODES>
          </SINGLE-ECU-JOB>
          <SINGLE-ECU-JOB ID="JOB.Calib">
            <SHORT-NAME>CalibJob</SHORT-NAME>
            <PROG-CODES>
              <PROG-CODE>
                <CODE-FILE>calib.jar</CODE-FILE>
                <SYNTAX>JAR</SYNTAX>
              </PROG-CODE>
            </PROG-CODES>
          </SINGLE-ECU-JOB>
        </DIAG-COMMS>
        <REQUESTS>
          <REQUEST ID="RQ.ReadSpeed">
            <SHORT-NAME>RQ_ReadSpeed</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="CODED-CONST" SEMANTIC="SERVICE-ID">
                <SHORT-NAME>SID</SHORT-NAME>
                <BYTE-POSITION>0</BYTE-POSITION>
                <CODED-VALUE>34</CODED-VALUE>
                <DIAG-CODED-TYPE xsi:type="STANDARD-LENGTH-TYPE" BASE-DATA-TYPE="A_UINT32"><BIT-LENGTH>8</BIT-LENGTH></DIAG-CODED-TYPE>
              </PARAM>
            </PARAMS>
          </REQUEST>
        </REQUESTS>
        <POS-RESPONSES>
          <POS-RESPONSE ID="PR.ReadSpeed">
            <SHORT-NAME>PR_ReadSpeed</SHORT-NAME>
            <PARAMS>
              <PARAM xsi:type="VALUE" SEMANTIC="DATA">
                <SHORT-NAME>Speed</SHORT-NAME>
                <BYTE-POSITION>1</BYTE-POSITION>
                <DOP-REF ID-REF="DOP.Speed"/>
              </PARAM>
            </PARAMS>
          </POS-RESPONSE>
        </POS-RESPONSES>
      </BASE-VARIANT>
    </BASE-VARIANTS>
  </DIAG-LAYER-CONTAINER>
</ODX>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{path: "a/ecu.odx", want: FormatODX},
		{path: "ecu.ODX-D", want: FormatODX},
		{path: "bundle.pdx", want: FormatPDX},
		{path: "ecu.yml", want: FormatYAML},
		{path: "ecu.yaml", want: FormatYAML},
		{path: "ecu.mdd", want: FormatMDD},
		{path: "ecu.json", err: true},
		{path: "Makefile", err: true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if tt.err {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Fatalf("DetectFormat(%q) err = %v, want ErrUnknownFormat", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("DetectFormat(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
		}
	}
}

func TestFormatPairsAndNames(t *testing.T) {
	if err := CheckPair(FormatYAML, FormatYAML); !errors.Is(err, ErrSameFormat) {
		t.Fatalf("same format: %v", err)
	}
	if err := CheckPair(FormatODX, FormatPDX); !errors.Is(err, ErrInputOnly) {
		t.Fatalf("pdx output: %v", err)
	}
	if err := CheckPair(FormatPDX, FormatMDD); err != nil {
		t.Fatalf("pdx input: %v", err)
	}
	if f, err := ParseOutputFormat("yml"); err != nil || f != FormatYAML {
		t.Fatalf("ParseOutputFormat(yml) = %q, %v", f, err)
	}
	if _, err := ParseOutputFormat("json"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("ParseOutputFormat(json) = %v", err)
	}
	if got := OutputPath("out", "in/ecu.v2.odx", FormatYAML); got != filepath.Join("out", "ecu.v2.yml") {
		t.Fatalf("OutputPath = %q", got)
	}
}

// ODX → YAML → MDD → YAML must keep the database intact.
func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	odxPath := writeFile(t, dir, "brake.odx", ecuODX)
	yml := filepath.Join(dir, "brake.yml")
	mddPath := filepath.Join(dir, "brake.mdd")
	yml2 := filepath.Join(dir, "again.yml")
	ctx := context.Background()

	if _, err := File(ctx, odxPath, yml, nil); err != nil {
		t.Fatalf("odx -> yaml: %v", err)
	}
	res, err := File(ctx, yml, mddPath, &Options{Compression: "zstd"})
	if err != nil {
		t.Fatalf("yaml -> mdd: %v", err)
	}
	if res.PayloadSize == 0 || res.OutputSize == 0 {
		t.Fatalf("mdd sizes not reported: %+v", res)
	}
	if _, err := File(ctx, mddPath, yml2, nil); err != nil {
		t.Fatalf("mdd -> yaml: %v", err)
	}

	fromODX, err := Load(ctx, odxPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	final, err := Load(ctx, yml2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fromODX.DB, final.DB, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("database changed on the way (-odx +yaml):\n%s", diff)
	}
	if final.DB.EcuName != "Brake" || len(final.DB.Dtcs) != 1 || final.DB.Dtcs[0].TroubleCode != 16437 {
		t.Fatalf("unexpected final database: %+v", final.DB)
	}
}

func TestRejectsSameFormatAndPDXOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "a.odx", ecuODX)
	if _, err := File(context.Background(), in, filepath.Join(dir, "b.odx"), nil); !errors.Is(err, ErrSameFormat) {
		t.Fatalf("odx -> odx: %v", err)
	}
	if _, err := File(context.Background(), in, filepath.Join(dir, "b.pdx"), nil); !errors.Is(err, ErrInputOnly) {
		t.Fatalf("odx -> pdx: %v", err)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "a.odx", ecuODX)
	out := filepath.Join(dir, "a.mdd")
	res, err := File(context.Background(), in, out, &Options{DryRun: true, LogLevel: LogInfo})
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || res.OutputSize == 0 {
		t.Fatalf("result = %+v", res)
	}
	for _, p := range []string{out, out + ".log"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("dry run created %s", p)
		}
	}
}

func TestJobFilesAndReport(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "brake.odx", ecuODX)
	jobs := filepath.Join(dir, "jobs")
	if err := os.Mkdir(jobs, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, jobs, "flash.jar", "PK\x03\x04flash")
	out := filepath.Join(dir, "brake.mdd")

	res, err := File(context.Background(), in, out, &Options{JobFilesDir: jobs, LogLevel: LogDebug})
	if err != nil {
		t.Fatal(err)
	}
	if res.JobFiles != 1 {
		t.Fatalf("job files = %d, want 1", res.JobFiles)
	}
	var missing []string
	for _, d := range res.Warnings.Items() {
		if d.Code == diag.CnvMissingJobFile {
			missing = append(missing, d.Subject)
		}
	}
	if diff := cmp.Diff([]string{"calib.jar"}, missing); diff != "" {
		t.Fatalf("missing job files (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	f, err := mdd.Decode(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string][]byte{"flash.jar": []byte("PK\x03\x04flash")}, f.CodeFiles()); diff != "" {
		t.Fatalf("code file chunks (-want +got):\n%s", diff)
	}

	log, err := os.ReadFile(out + ".log")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{
		"input_format: ODX",
		"output_format: MDD",
		"parse_time: ",
		"ecu: Brake",
		"variants: 1",
		"job_files: 1",
		"warnings: ",
		"calib.jar",
		"variant 'Brake_Base': 1 services, 2 jobs",
	} {
		if !strings.Contains(string(log), want) {
			t.Fatalf("report misses %q:\n%s", want, log)
		}
	}
}

func TestAudienceFilterOnYAML(t *testing.T) {
	const doc = `schema: diagconv/v1
ecu:
  name: E
variants:
  - diag_layer:
      short_name: V
      diag_services:
        - short_name: Public
        - short_name: DevOnly
          audience:
            enabled: [Development]
`
	in, err := Parse(context.Background(), []byte(doc), FormatYAML, &Options{Audiences: []string{"AfterSales"}})
	if err != nil {
		t.Fatal(err)
	}
	services := in.DB.Variants[0].DiagLayer.DiagServices
	if len(services) != 1 || services[0].ShortName != "Public" {
		t.Fatalf("services after filter = %+v", services)
	}
}

func TestYAMLSchemaErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "bad.yml", "schema: diagconv/v1\necu:\n  name: E\n  colour: red\n")
	_, err := File(context.Background(), in, filepath.Join(dir, "bad.mdd"), nil)
	var sve *yamlfmt.SchemaValidationError
	if !errors.As(err, &sve) {
		t.Fatalf("err = %v, want SchemaValidationError", err)
	}
}

func TestCacheHit(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := &Options{Cache: c}
	first, err := Parse(context.Background(), []byte(ecuODX), FormatODX, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Parse(context.Background(), []byte(ecuODX), FormatODX, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if diff := cmp.Diff(first.DB, second.DB, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("cached database differs (-parsed +cached):\n%s", diff)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) last(file string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ev Event
	for _, e := range s.events {
		if e.File == file {
			ev = e
		}
	}
	return ev
}

func TestBatchIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good1 := writeFile(t, dir, "one.odx", ecuODX)
	bad := writeFile(t, dir, "broken.odx", "<ODX><DIAG-LAYER-CONTAINER>")
	good2 := writeFile(t, dir, "two.odx", ecuODX)
	outDir := filepath.Join(dir, "out")
	sink := &recordingSink{}

	outcomes, err := Batch(context.Background(), []string{good1, bad, good2}, outDir, FormatMDD, &Options{Jobs: 2, Progress: sink})
	var be *BatchError
	if !errors.As(err, &be) || be.Failed != 1 || be.Total != 3 {
		t.Fatalf("err = %v, want 1 of 3 failed", err)
	}
	if err.Error() != "1 of 3 files failed to convert" {
		t.Fatalf("message = %q", err)
	}
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Fatalf("siblings failed: %v / %v", outcomes[0].Err, outcomes[2].Err)
	}
	if outcomes[1].Err == nil || !strings.HasPrefix(outcomes[1].FailureLine(), "FAILED "+bad+": ") {
		t.Fatalf("failure line = %q", outcomes[1].FailureLine())
	}
	for _, name := range []string{"one.mdd", "two.mdd"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
	if ev := sink.last(bad); ev.Status != StatusError || ev.Stage != StageParse {
		t.Fatalf("last event for broken file = %+v", ev)
	}
	if ev := sink.last(good1); ev.Status != StatusDone {
		t.Fatalf("last event for good file = %+v", ev)
	}
}

func TestBatchOutputCollision(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	for _, d := range []string{a, b} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	first := writeFile(t, a, "ecu.odx", ecuODX)
	second := writeFile(t, b, "ecu.odx", ecuODX)
	outcomes, err := Batch(context.Background(), []string{first, second}, filepath.Join(dir, "out"), FormatYAML, nil)
	if err == nil || outcomes[0].Err != nil || outcomes[1].Err == nil {
		t.Fatalf("collision not reported: %v, %+v", err, outcomes)
	}
}

func TestRepackPreservesVendorChunks(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "brake.odx", ecuODX)
	src := filepath.Join(dir, "brake.mdd")
	if _, err := File(context.Background(), in, src, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	out, res, err := Repack(context.Background(), data, mdd.Writer{Compression: "gzip", SignContainer: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 1 || res.Verbatim != 0 {
		t.Fatalf("repack result = %+v", res)
	}
	f, err := mdd.Decode(context.Background(), out)
	if err != nil {
		t.Fatalf("decode repacked: %v", err)
	}
	if f.ChunksSignature == nil {
		t.Fatalf("container signature missing")
	}
	db, _, err := mdd.ReadDatabase(context.Background(), out)
	if err != nil || db.EcuName != "Brake" {
		t.Fatalf("repacked database: %v, %v", db, err)
	}
}
