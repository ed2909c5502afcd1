package openvr

//go:generate go run ../cmd/openvr-bindgen -config ../openvr-bindgen.toml
