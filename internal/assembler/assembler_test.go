package assembler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pagecomposer/internal/section"
)

func done(t *testing.T, id string, order int, html, code string) section.Section {
	t.Helper()
	st, err := section.Done(html, code)
	require.NoError(t, err)
	return section.Section{ID: id, Order: order, Mode: section.ModeNone, Status: st}
}

func with(id string, order int, st section.Status) section.Section {
	return section.Section{ID: id, Order: order, Mode: section.ModeNone, Status: st}
}

func TestAssemble_OnlyDoneSectionsInOrder(t *testing.T) {
	doc := Assemble([]section.Section{
		done(t, "c", 2, "<footer/>", "F"),
		with("b", 1, section.Pending()),
		done(t, "a", 0, "<header/>", "H"),
		with("d", 3, section.Skipped()),
	})
	assert.Equal(t, "<header/><footer/>", doc.HTML)
	assert.Equal(t, "HF", doc.Code)
	assert.Equal(t, []string{"a", "c"}, doc.Included)
	assert.Equal(t, []string{"b", "d"}, doc.Omitted)
}

func TestAssemble_OneDoneRestSkipped(t *testing.T) {
	doc := Assemble([]section.Section{
		with("a", 0, section.Skipped()),
		done(t, "b", 1, "<section>only</section>", ""),
		with("c", 2, section.Skipped()),
		with("d", 3, section.Skipped()),
	})
	assert.Equal(t, "<section>only</section>", doc.HTML)
	assert.Equal(t, "<section>only</section>", doc.Code)
}

func TestAssemble_IndependentOfInputOrderAndSkippedSections(t *testing.T) {
	a := done(t, "a", 0, "<a/>", "")
	b := done(t, "b", 1, "<b/>", "")
	c := done(t, "c", 2, "<c/>", "")
	want := Assemble([]section.Section{a, b, c}).HTML

	assert.Equal(t, want, Assemble([]section.Section{c, a, b}).HTML)
	assert.Equal(t, want, Assemble([]section.Section{b, with("x", 3, section.Skipped()), c, a}).HTML)
	assert.Equal(t, want, Assemble([]section.Section{with("y", -1, section.Generating(1)), a, b, c}).HTML)
}

func TestAssemble_Empty(t *testing.T) {
	doc := Assemble(nil)
	assert.Empty(t, doc.HTML)
	assert.Empty(t, doc.Included)
}

type memPersistence struct {
	got []SaveRequest
	err error
}

func (m *memPersistence) Name() string { return "mem" }

func (m *memPersistence) Save(_ context.Context, req SaveRequest) (Ack, error) {
	if m.err != nil {
		return Ack{}, m.err
	}
	m.got = append(m.got, req)
	return Ack{Backend: "mem", Location: "mem://" + req.PageName}, nil
}

func TestSave(t *testing.T) {
	p := &memPersistence{}
	secs := []section.Section{done(t, "b", 1, "<b/>", ""), done(t, "a", 0, "<a/>", "")}

	ack, doc, err := Save(context.Background(), p, "home", secs)
	require.NoError(t, err)
	assert.Equal(t, "mem://home", ack.Location)
	assert.Equal(t, "<a/><b/>", doc.HTML)
	require.Len(t, p.got, 1)
	assert.Equal(t, "<a/><b/>", p.got[0].FinalHTML)
	assert.Equal(t, "a", p.got[0].Sections[0].ID)
	assert.False(t, p.got[0].SavedAt.IsZero())
}

func TestSave_Errors(t *testing.T) {
	_, _, err := Save(context.Background(), &memPersistence{}, "  ", nil)
	assert.ErrorIs(t, err, ErrNoPageName)

	boom := errors.New("disk full")
	_, doc, err := Save(context.Background(), &memPersistence{err: boom}, "home", []section.Section{done(t, "a", 0, "<a/>", "")})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "<a/>", doc.HTML)
}
