// Package config provides configuration types, loading and validation for
// the actions engine.
//
// Configuration is a single YAML document in the familiar
// apiVersion/kind/metadata/spec envelope:
//
//	apiVersion: actions.avactions.io/v1
//	kind: Actions
//	metadata:
//	  name: demo
//	spec:
//	  cache:
//	    namespace: demo
//	    providers:
//	      local:
//	        type: memory
//	  routes:
//	    - name: blog_show
//	      handler: blog.show
//	      segments:
//	        - blog
//	        - {type: numeric, name: postId}
//
// Environment variables are substituted before parsing using ${VAR} and
// ${VAR:-default}; a literal dollar sign is written as $$.
//
// The order of spec.routes is the registration order of the route table.
package config
