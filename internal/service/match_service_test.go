package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
	"apflow/internal/match"
	"apflow/internal/service"
	"apflow/mocks"
)

func matchableDocument() *domain.CanonicalDocument {
	field := func(v string) domain.ResolvedField {
		conf := 0.95
		return domain.ResolvedField{Value: &v, Confidence: &conf, Source: domain.SourcePrimary}
	}
	return &domain.CanonicalDocument{
		ID:    uuid.New(),
		State: domain.StateExtracted,
		Fields: domain.FieldMap{
			domain.FieldVendorName:  field("ACME Corp"),
			domain.FieldTotalAmount: field("1250.00"),
			domain.FieldInvoiceDate: field("2026-03-15"),
			domain.FieldPONumber:    field("PO-7781"),
		},
	}
}

func TestMatchService_MatchesAgainstVendorCandidates(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	refRepo := new(mocks.MockReferenceRepo)
	svc := service.NewMatchService(docRepo, refRepo, match.NewEngine(match.DefaultConfig()))

	doc := matchableDocument()
	date, _ := time.Parse("2006-01-02", "2026-03-15")
	amount, _ := domain.ParseAmount("1250.00")
	ref := domain.ReferenceDocument{
		ID:              uuid.New(),
		Number:          "PO-7781",
		Date:            date,
		VendorName:      "acme corp",
		TotalAmount:     amount,
		ReferenceNumber: "PO-7781",
	}

	docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	refRepo.On("ListByVendor", mock.Anything, "ACME Corp").Return([]domain.ReferenceDocument{ref}, nil)

	result, err := svc.Match(context.Background(), doc.ID)

	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.NotNil(t, result.MatchedReferenceID)
	assert.Equal(t, ref.ID, *result.MatchedReferenceID)
	refRepo.AssertExpectations(t)
}

func TestMatchService_NoVendorSkipsLookup(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	refRepo := new(mocks.MockReferenceRepo)
	svc := service.NewMatchService(docRepo, refRepo, match.NewEngine(match.DefaultConfig()))

	doc := matchableDocument()
	delete(doc.Fields, domain.FieldVendorName)
	docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	result, err := svc.Match(context.Background(), doc.ID)

	require.NoError(t, err)
	assert.False(t, result.Matched)
	var codes []string
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, domain.WarnNoCandidates)
	refRepo.AssertNotCalled(t, "ListByVendor", mock.Anything, mock.Anything)
}

func TestMatchService_UnknownDocument(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	refRepo := new(mocks.MockReferenceRepo)
	svc := service.NewMatchService(docRepo, refRepo, match.NewEngine(match.DefaultConfig()))

	id := uuid.New()
	docRepo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrUnknownDocument)

	_, err := svc.Match(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
}

func TestMatchService_RepoFailure(t *testing.T) {
	docRepo := new(mocks.MockDocumentRepo)
	refRepo := new(mocks.MockReferenceRepo)
	svc := service.NewMatchService(docRepo, refRepo, match.NewEngine(match.DefaultConfig()))

	doc := matchableDocument()
	docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	refRepo.On("ListByVendor", mock.Anything, mock.Anything).Return(nil, errors.New("db gone"))

	_, err := svc.Match(context.Background(), doc.ID)
	assert.Error(t, err)
}
