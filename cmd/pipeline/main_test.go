package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const costCSV = `Produto,Quantidade,Lote,Custo PA
"Produto A","10","03082025","1000"
"Produto B","5","04082025","250"
`

const statementCSV = `;DRE 2025;;;;
;;JAN;;FEV;
;Conta;Previsto;Realizado;Orçado;Executado
1;Receita Líquida;1000;1100;900;950
2;Salários;(300);(320,50);(300);(310)
4;EBITDA;200;180;150;170
5;Despesas Adm (15%);-50;-60;-50;-55
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "aug.csv", costCSV)
	out, err := execute(t, "ingest", path, "--preset", "product-cost", "--period", "2025-08")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var rep struct {
		Source struct {
			Tag             string            `json:"tag"`
			ResolvedColumns map[string]string `json:"resolvedColumns"`
			RecordCount     int               `json:"recordCount"`
		} `json:"source"`
		Headers []string `json:"headers"`
		Records []struct {
			Entity   string  `json:"entity"`
			Value    float64 `json:"value"`
			PeriodID string  `json:"periodId"`
		} `json:"records"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep.Source.Tag != "2025-08" || rep.Source.RecordCount != 2 || len(rep.Records) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Records[0].Entity != "Produto A" || rep.Records[0].Value != 1000 {
		t.Fatalf("first record = %+v", rep.Records[0])
	}
}

func TestIngestRejectsUnknownPreset(t *testing.T) {
	_, err := execute(t, "ingest", "x.csv", "--preset", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown preset") {
		t.Fatalf("err = %v", err)
	}
}

func TestIngestMissingFileFails(t *testing.T) {
	_, err := execute(t, "ingest", filepath.Join(t.TempDir(), "missing.csv"), "--preset", "product-cost")
	if err == nil {
		t.Fatal("expected a fetch error")
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "aug.csv", costCSV)
	outDir := filepath.Join(dir, "out")
	cfgPath := writeFile(t, dir, "pipeline.yaml", `
outputDir: `+outDir+`
views:
  - name: cost
    preset: product-cost
    sources:
      - tag: aug
        period: "2025-08"
        url: `+src+`
`)
	out, err := execute(t, "run", "--config", cfgPath, "--view", "cost", "--format", "json,csv")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var rep struct {
		RunID   string `json:"runId"`
		Output  string `json:"output"`
		Summary struct {
			SourcesTotal  int `json:"sources_total"`
			SourcesFailed int `json:"sources_failed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep.RunID == "" || rep.Summary.SourcesTotal != 1 || rep.Summary.SourcesFailed != 0 {
		t.Fatalf("report = %+v", rep)
	}
	for _, name := range []string{"view.json", "records.csv"} {
		if _, err := os.Stat(filepath.Join(rep.Output, name)); err != nil {
			t.Fatalf("%s not exported: %v", name, err)
		}
	}
}

func TestRunNeedsConfig(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG", "")
	if _, err := execute(t, "run", "--view", "cost"); err == nil {
		t.Fatal("expected an error without --config")
	}
}

func TestStatementCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dre.csv", statementCSV)

	tests := []struct {
		mode  string
		count int
	}{
		{"detailed", 1},
		{"aggregated", 3},
	}
	for _, tt := range tests {
		out, err := execute(t, "statement", path, "--month", "jan", "--mode", tt.mode)
		if err != nil {
			t.Fatalf("%s: %v", tt.mode, err)
		}
		var rep struct {
			Months []string `json:"months"`
			Ranked []struct {
				Name string `json:"name"`
			} `json:"ranked"`
		}
		if err := json.Unmarshal([]byte(out), &rep); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if len(rep.Ranked) != tt.count || rep.Ranked[0].Name != "Salários" {
			t.Fatalf("%s ranked = %+v", tt.mode, rep.Ranked)
		}
		if len(rep.Months) != 2 {
			t.Fatalf("months = %v", rep.Months)
		}
	}

	if _, err := execute(t, "statement", path, "--month", "jan", "--mode", "fancy"); err == nil {
		t.Fatal("expected a mode error")
	}
}

func TestStatementCompare(t *testing.T) {
	dir := t.TempDir()
	cash := writeFile(t, dir, "cash.csv", statementCSV)
	accrual := writeFile(t, dir, "accrual.csv", strings.Replace(statementCSV, "1000;1100", "1000;1000", 1))
	out, err := execute(t, "statement", cash, "--month", "jan", "--compare", accrual)
	if err != nil {
		t.Fatal(err)
	}
	var rep struct {
		Variance []struct {
			Key   string  `json:"key"`
			Delta float64 `json:"delta"`
		} `json:"variance"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Variance) == 0 || rep.Variance[0].Key != "Receita Líquida" || rep.Variance[0].Delta != 100 {
		t.Fatalf("variance = %+v", rep.Variance)
	}
}
