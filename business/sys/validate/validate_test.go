package validate_test

import (
	"testing"

	"github.com/ardanlabs/reszka/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	URL string `json:"url" validate:"required,url"`
}

func Test_Check(t *testing.T) {
	type table struct {
		name   string
		val    node
		fields int
	}

	tt := []table{
		{name: "valid", val: node{URL: "http://localhost:8080"}, fields: 0},
		{name: "missing", val: node{}, fields: 1},
		{name: "notaurl", val: node{URL: "localhost"}, fields: 1},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := validate.Check(tst.val)

				if tst.fields == 0 {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to validate the model: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to validate the model.", success, testID)
					return
				}

				fe := validate.GetFieldErrors(err)
				if len(fe) != tst.fields {
					t.Logf("\t\tTest %d:\tgot: %d", testID, len(fe))
					t.Logf("\t\tTest %d:\texp: %d", testID, tst.fields)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right number of field errors.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right number of field errors.", success, testID)

				if _, exists := fe.Fields()["url"]; !exists {
					t.Fatalf("\t%s\tTest %d:\tShould report the error under the json field name.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould report the error under the json field name.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}
