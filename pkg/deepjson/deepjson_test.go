package deepjson_test

import (
	"testing"

	"github.com/okian/raidline/pkg/deepjson"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given arbitrary JSON documents", t, func() {
		Convey("When decoding a nested object", func() {
			v, err := deepjson.Parse([]byte(`{"a":{"b":[1,"two",null,true]}}`))

			Convey("Then the tree mirrors the document", func() {
				So(err, ShouldBeNil)
				So(v.Kind(), ShouldEqual, deepjson.Object)
				So(v.Members(), ShouldHaveLength, 1)
				So(v.Members()[0].Key, ShouldEqual, "a")
				inner := v.Members()[0].Value
				So(inner.Members()[0].Value.Kind(), ShouldEqual, deepjson.Array)
				So(inner.Members()[0].Value.Elems(), ShouldHaveLength, 4)
			})
		})

		Convey("When decoding a large numeric id", func() {
			v, err := deepjson.Parse([]byte(`{"id": 1846183529104917}`))

			Convey("Then the document text is preserved exactly", func() {
				So(err, ShouldBeNil)
				s, ok := v.Members()[0].Value.Scalar()
				So(ok, ShouldBeTrue)
				So(s, ShouldEqual, "1846183529104917")
			})
		})

		Convey("When decoding malformed input", func() {
			_, err := deepjson.Parse([]byte(`{"a":`))

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestFirst(t *testing.T) {
	Convey("Given a deep key search", t, func() {
		Convey("When the key sits below an unknown wrapper", func() {
			v, err := deepjson.Parse([]byte(`{"a": {"rest_id": "42"}}`))
			So(err, ShouldBeNil)

			Convey("Then the value is still found", func() {
				got, ok := v.First("rest_id")
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, "42")
			})
		})

		Convey("When several candidates exist", func() {
			v, err := deepjson.Parse([]byte(`{"x":{"id":"first"},"y":{"id":"second"}}`))
			So(err, ShouldBeNil)

			Convey("Then document order decides", func() {
				got, ok := v.First("id")
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, "first")
			})
		})

		Convey("When the matching key holds an object", func() {
			v, err := deepjson.Parse([]byte(`{"id":{"nested":"7"},"other":"x"}`))
			So(err, ShouldBeNil)

			Convey("Then the subtree is searched but the object itself is skipped", func() {
				got, ok := v.First("nested")
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, "7")
				_, ok = v.First("id")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the key is absent", func() {
			v, err := deepjson.Parse([]byte(`{"a":[{"b":1}]}`))
			So(err, ShouldBeNil)

			Convey("Then the search reports no match", func() {
				_, ok := v.First("rest_id")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestCollect(t *testing.T) {
	Convey("Given a collecting search over several keys", t, func() {
		doc := `[
			{"in_reply_to_status_id_str": "100"},
			{"other": "200"},
			{"wrap": {"in_reply_to_status_id": 300}},
			{"in_reply_to_status_id_str": "100"}
		]`
		v, err := deepjson.Parse([]byte(doc))
		So(err, ShouldBeNil)

		Convey("When collecting both reply keys", func() {
			got := v.Collect("in_reply_to_status_id_str", "in_reply_to_status_id")

			Convey("Then every occurrence appears in document order", func() {
				So(got, ShouldResemble, []string{"100", "300", "100"})
			})
		})

		Convey("When collecting a key that never appears", func() {
			got := v.Collect("missing")

			Convey("Then the result is empty", func() {
				So(got, ShouldBeEmpty)
			})
		})
	})
}
