package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleData() Data {
	return Data{
		BillID:         "BILL-2041",
		RegistrationID: "REG-1001",
		PatientName:    "Asha Verma",
		Items: []Line{
			{Name: "Tobramycin 0.3%", Quantity: 2, Price: decimal.NewFromInt(100), Total: decimal.NewFromInt(200)},
			{Name: "Carboxymethylcellulose", Quantity: 3, Price: decimal.NewFromInt(50), Total: decimal.NewFromInt(150)},
		},
		Total:         decimal.NewFromInt(350),
		PaymentMethod: "cash",
		IssuedAt:      time.Date(2025, 3, 14, 11, 30, 0, 0, time.UTC),
	}
}

func TestRenderContainsBillDetails(t *testing.T) {
	r := NewRenderer("Drishti Eye Hospital")
	var buf bytes.Buffer
	if err := r.Render(&buf, sampleData()); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"BILL-2041",
		"Asha Verma",
		"REG-1001",
		"Tobramycin 0.3%",
		"350.00",
		"14 Mar 2025 11:30",
		"cash",
		"Drishti Eye Hospital",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("receipt missing %q", want)
		}
	}
}

func TestRenderDefaultsHospitalName(t *testing.T) {
	r := NewRenderer("")
	var buf bytes.Buffer
	if err := r.Render(&buf, sampleData()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Drishti Eye Hospital") {
		t.Error("expected default hospital name in header")
	}
}

func TestRenderEscapesPatientName(t *testing.T) {
	r := NewRenderer("Drishti Eye Hospital")
	data := sampleData()
	data.PatientName = `<script>alert("x")</script>`

	var buf bytes.Buffer
	if err := r.Render(&buf, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("patient name was not HTML-escaped")
	}
}
