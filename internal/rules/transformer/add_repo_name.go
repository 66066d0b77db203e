// Copyright 2024 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transformer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindAddRepoName = "AddRepoName"

func init() {
	Registry.Register(kindAddRepoName, func(def lareferencia.RuleDef) (Rule, error) {
		var r AddRepoName
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// AddRepoName injects a single repository display-name field, composed
// from the network's name and institution acronym. It is the lighter-weight counterpart to AddProvenanceMetadata.
type AddRepoName struct {
	Base
	FieldName          string `json:"fieldName" lr:"title=Target field,order=2"`
	NetworkName        string `json:"name" lr:"title=Network name,order=3"`
	InstitutionName    string `json:"institutionName" lr:"title=Institution name,order=4"`
	InstitutionAcronym string `json:"institutionAcronym" lr:"title=Institution acronym,order=5"`
}

// Kind implements Rule.
func (r *AddRepoName) Kind() string { return kindAddRepoName }

// Name implements Describable.
func (r *AddRepoName) Name() string { return "Add repository display name" }

// Help implements Describable.
func (r *AddRepoName) Help() string {
	return "Injects a single repository display-name field composed from the network's name and institution."
}

// DescribeSchema implements Describable.
func (r *AddRepoName) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Transform implements Rule.
func (r *AddRepoName) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	field := r.FieldName
	if field == "" {
		field = fieldRepositoryName
	}
	metadata.AddFieldOccurrence(field, r.displayName())
	return true, nil
}

func (r *AddRepoName) displayName() string {
	switch {
	case r.NetworkName != "" && r.InstitutionAcronym != "":
		return fmt.Sprintf("%s (%s)", r.NetworkName, r.InstitutionAcronym)
	case r.NetworkName != "":
		return r.NetworkName
	case r.InstitutionName != "":
		return r.InstitutionName
	default:
		return r.InstitutionAcronym
	}
}
