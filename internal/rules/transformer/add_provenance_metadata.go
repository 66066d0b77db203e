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
	"time"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindAddProvenanceMetadata = "AddProvenanceMetadata"

// Provenance field names injected by AddProvenanceMetadata.
const (
	fieldRepositoryType   = "repository:repositoryType"
	fieldRepositoryURL    = "repository:repositoryURL"
	fieldInstitutionType  = "repository:institutionType"
	fieldInstitutionURL   = "repository:institutionURL"
	fieldBaseURL          = "repository:baseURL"
	fieldMail             = "repository:mail"
	fieldCountry          = "repository:country"
	fieldDOI              = "repository:DOI"
	fieldISSN             = "repository:ISSN"
	fieldISSNL            = "repository:ISSN_L"
	fieldOtherIdentifier  = "others:identifier"
	fieldRepositoryID     = "repository:repositoryID"
	fieldHarvestDate      = "repository:harvestDate"
	fieldRepositoryName   = "repository:name"
	opendoarIDPrefix      = "opendoar:"
)

func init() {
	Registry.Register(kindAddProvenanceMetadata, func(def lareferencia.RuleDef) (Rule, error) {
		var r AddProvenanceMetadata
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// AddProvenanceMetadata injects a fixed set of repository-provenance
// fields into every record. These are an immutable value resolved once
// when the rule is decoded, before it joins a transformer, rather than
// read live off a shared, mutable NetworkInfo.
type AddProvenanceMetadata struct {
	Base
	RepositoryType     string `json:"repositoryType" lr:"title=Repository type,order=2"`
	RepositoryURL      string `json:"repositoryURL" lr:"title=Repository URL,order=3"`
	InstitutionType    string `json:"institutionType" lr:"title=Institution type,order=4"`
	InstitutionURL     string `json:"institutionURL" lr:"title=Institution URL,order=5"`
	BaseURL            string `json:"baseURL" lr:"title=Base URL,order=6"`
	Mail               string `json:"mail" lr:"title=Contact mail,order=7"`
	Country            string `json:"country" lr:"title=Country,order=8"`
	DOI                string `json:"doi" lr:"title=DOI,order=9"`
	ISSN               string `json:"issn" lr:"title=ISSN,order=10"`
	ISSNL              string `json:"issnL" lr:"title=ISSN-L,order=11"`
	OtherIdentifier    string `json:"otherIdentifier" lr:"title=Other identifier,order=12"`
	OpendoarID         string `json:"opendoarId" lr:"title=OpenDOAR ID,order=13"`
	RepositoryName     string `json:"name" lr:"title=Repository name,order=14"`
}

// Kind implements Rule.
func (r *AddProvenanceMetadata) Kind() string { return kindAddProvenanceMetadata }

// Name implements Describable.
func (r *AddProvenanceMetadata) Name() string { return "Add provenance metadata" }

// Help implements Describable.
func (r *AddProvenanceMetadata) Help() string {
	return "Injects the repository's provenance fields (type, URLs, identifiers, harvest date) into the record."
}

// DescribeSchema implements Describable.
func (r *AddProvenanceMetadata) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *AddProvenanceMetadata) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	r.addIfSet(metadata, fieldRepositoryType, r.RepositoryType)
	r.addIfSet(metadata, fieldRepositoryURL, r.RepositoryURL)
	r.addIfSet(metadata, fieldInstitutionType, r.InstitutionType)
	r.addIfSet(metadata, fieldInstitutionURL, r.InstitutionURL)
	r.addIfSet(metadata, fieldBaseURL, r.BaseURL)
	r.addIfSet(metadata, fieldMail, r.Mail)
	r.addIfSet(metadata, fieldCountry, r.Country)
	r.addIfSet(metadata, fieldDOI, r.DOI)
	r.addIfSet(metadata, fieldISSN, r.ISSN)
	r.addIfSet(metadata, fieldISSNL, r.ISSNL)
	r.addIfSet(metadata, fieldOtherIdentifier, r.OtherIdentifier)
	r.addIfSet(metadata, fieldRepositoryName, r.RepositoryName)
	if r.OpendoarID != "" {
		metadata.AddFieldOccurrence(fieldRepositoryID, opendoarIDPrefix+r.OpendoarID)
	}
	metadata.AddFieldOccurrence(fieldHarvestDate, time.Now().UTC().Format(time.RFC3339))

	return true, nil
}

func (r *AddProvenanceMetadata) addIfSet(metadata *metadatatree.OAIRecordMetadata, field, value string) {
	if value != "" {
		metadata.AddFieldOccurrence(field, value)
	}
}
