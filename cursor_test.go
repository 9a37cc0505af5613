package xenon_test

import (
	"context"
	"io"
	"testing"

	"github.com/lestrrat-go/xenon"
	"github.com/stretchr/testify/require"
)

func TestCursorAdvance(t *testing.T) {
	c, err := xenon.NewCursor([]byte(`<a x="1"><b/>text</a>`))
	require.NoError(t, err, "NewCursor should succeed")

	ctx := context.Background()

	tok, err := c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, xenon.StartTagToken, tok.Type, "first token opens the root")
	require.Equal(t, "a", tok.Name.Local, "name matches")
	require.Equal(t, []xenon.Attr{{Name: xenon.QName{Local: "x"}, Value: "1"}}, tok.Attrs, "attributes ride on the start tag")
	require.False(t, tok.SelfClosing, "an open tag is not self closing")

	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, xenon.StartTagToken, tok.Type, "an empty element tag arrives as a start tag")
	require.Equal(t, "b", tok.Name.Local, "name matches")
	require.True(t, tok.SelfClosing, "marked self closing")

	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, xenon.EndTagToken, tok.Type, "the synthesized end tag follows")
	require.Equal(t, "b", tok.Name.Local, "name matches")

	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, xenon.TextToken, tok.Type, "text follows")
	require.Equal(t, []byte("text"), tok.Text, "content matches")

	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, xenon.EndTagToken, tok.Type, "the root closes")
	require.Equal(t, "a", tok.Name.Local, "name matches")

	_, err = c.Advance(ctx)
	require.ErrorIs(t, err, io.EOF, "the stream ends with io.EOF")
	_, err = c.Advance(ctx)
	require.ErrorIs(t, err, io.EOF, "and stays ended")
}

func TestCursorPeek(t *testing.T) {
	c, err := xenon.NewCursor([]byte(`<a><b/></a>`))
	require.NoError(t, err, "NewCursor should succeed")

	ctx := context.Background()

	p1, err := c.Peek(ctx)
	require.NoError(t, err, "Peek should succeed")
	p2, err := c.Peek(ctx)
	require.NoError(t, err, "Peek should succeed")
	require.Same(t, p1, p2, "repeated peeks see the same token")

	tok, err := c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Same(t, p1, tok, "Advance consumes the peeked token")

	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, "b", tok.Name.Local, "the stream continues past the peek")
}

func TestCursorSkipSubtree(t *testing.T) {
	c, err := xenon.NewCursor([]byte(`<root><skip><deep>x</deep></skip><keep/></root>`))
	require.NoError(t, err, "NewCursor should succeed")

	ctx := context.Background()

	require.Equal(t, xenon.ErrNotStartElement, c.SkipSubtree(ctx), "nothing to skip before the first Advance")

	_, err = c.Advance(ctx) // root
	require.NoError(t, err, "Advance should succeed")
	tok, err := c.Advance(ctx) // skip
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, "skip", tok.Name.Local, "positioned on the element to discard")

	require.NoError(t, c.SkipSubtree(ctx), "SkipSubtree should succeed")

	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, xenon.StartTagToken, tok.Type, "the cursor resumes after the skipped subtree")
	require.Equal(t, "keep", tok.Name.Local, "name matches")
}

func TestCursorSkipMatchesConsume(t *testing.T) {
	const input = `<root><skip a="1"><deep>x<deeper/></deep>tail</skip><keep/></root>`

	after := func(t *testing.T, skip func(c *xenon.Cursor) error) *xenon.Token {
		c, err := xenon.NewCursor([]byte(input))
		require.NoError(t, err, "NewCursor should succeed")

		ctx := context.Background()
		_, err = c.Advance(ctx) // root
		require.NoError(t, err, "Advance should succeed")
		_, err = c.Advance(ctx) // skip
		require.NoError(t, err, "Advance should succeed")

		require.NoError(t, skip(c), "skipping should succeed")

		tok, err := c.Advance(ctx)
		require.NoError(t, err, "Advance should succeed")
		return tok
	}

	skipped := after(t, func(c *xenon.Cursor) error {
		return c.SkipSubtree(context.Background())
	})
	consumed := after(t, func(c *xenon.Cursor) error {
		depth := 1
		for depth > 0 {
			tok, err := c.Advance(context.Background())
			if err != nil {
				return err
			}
			switch tok.Type {
			case xenon.StartTagToken:
				depth++
			case xenon.EndTagToken:
				depth--
			}
		}
		return nil
	})

	require.Equal(t, consumed.Type, skipped.Type, "skipping lands where consuming lands")
	require.Equal(t, consumed.Name, skipped.Name, "same token either way")
	require.Equal(t, "keep", skipped.Name.Local, "the sibling after the skipped element")
}

func TestCursorReadText(t *testing.T) {
	c, err := xenon.NewCursor([]byte(`<doc><name><!--ignored-->Bob<?pi data?></name><mixed>a<child/>b</mixed></doc>`))
	require.NoError(t, err, "NewCursor should succeed")

	ctx := context.Background()

	_, err = c.ReadText(ctx)
	require.Equal(t, xenon.ErrNotStartElement, err, "no element to read before the first Advance")

	_, err = c.Advance(ctx) // doc
	require.NoError(t, err, "Advance should succeed")
	_, err = c.Advance(ctx) // name
	require.NoError(t, err, "Advance should succeed")

	text, err := c.ReadText(ctx)
	require.NoError(t, err, "ReadText should succeed")
	require.Equal(t, "Bob", text, "comments and processing instructions are discarded")

	tok, err := c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, "mixed", tok.Name.Local, "the cursor was left on the end tag")

	_, err = c.ReadText(ctx)
	require.ErrorIs(t, err, xenon.ErrMixedElementContent, "a child element fails the read")
}

func TestCursorReadTextCDATA(t *testing.T) {
	c, err := xenon.NewCursor([]byte(`<x>a<![CDATA[b]]>c</x>`))
	require.NoError(t, err, "NewCursor should succeed")

	ctx := context.Background()
	_, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")

	text, err := c.ReadText(ctx)
	require.NoError(t, err, "ReadText should succeed")
	require.Equal(t, "abc", text, "CDATA counts as text")
}

func TestCursorPositions(t *testing.T) {
	c, err := xenon.NewCursor([]byte("<a>\n  <b/>\n</a>"))
	require.NoError(t, err, "NewCursor should succeed")

	ctx := context.Background()

	tok, err := c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, 1, tok.Span.Start.Line, "the root opens on line 1")

	_, err = c.Advance(ctx) // blank run
	require.NoError(t, err, "Advance should succeed")
	tok, err = c.Advance(ctx)
	require.NoError(t, err, "Advance should succeed")
	require.Equal(t, "b", tok.Name.Local, "name matches")
	require.Equal(t, 2, tok.Span.Start.Line, "the child opens on line 2")
}

func TestCursorDocInfo(t *testing.T) {
	c, err := xenon.NewCursor(
		[]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><!DOCTYPE r><r/>`),
		xenon.WithDoctype(true),
	)
	require.NoError(t, err, "NewCursor should succeed")

	require.Equal(t, "1.0", c.Version(), "version comes from the declaration")
	require.Equal(t, "UTF-8", c.Encoding(), "encoding keeps its written form")
	require.Equal(t, xenon.StandaloneExplicitYes, c.Standalone(), "standalone matches")
	require.Nil(t, c.Doctype(), "the doctype has not been scanned yet")

	_, err = c.Advance(context.Background())
	require.NoError(t, err, "Advance should succeed")

	dt := c.Doctype()
	require.NotNil(t, dt, "the doctype is available once scanning passed it")
	require.Equal(t, "r", dt.Name(), "doctype name matches")
}

func TestCursorContextCancellation(t *testing.T) {
	c, err := xenon.NewCursor([]byte(`<a><b/></a>`))
	require.NoError(t, err, "NewCursor should succeed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Advance(ctx)
	require.ErrorIs(t, err, context.Canceled, "a canceled context stops the stream")
}
