package postgres

const queryListSchemas = `
	SELECT s.schema_name
	FROM information_schema.schemata s
	WHERE s.schema_name NOT IN ('pg_catalog', 'information_schema')
		AND s.schema_name NOT LIKE 'pg_toast%'
		AND s.schema_name NOT LIKE 'pg_temp%'
	ORDER BY s.schema_name`

// queryListProcedures takes the schema names as a text array in $1.
const queryListProcedures = `
	SELECT
		n.nspname,
		p.proname,
		CASE p.prokind WHEN 'p' THEN 'procedure' ELSE 'function' END,
		pg_catalog.pg_get_function_arguments(p.oid),
		COALESCE(pg_catalog.pg_get_function_result(p.oid), '')
	FROM pg_catalog.pg_proc p
	JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
	WHERE n.nspname = ANY($1)
		AND p.prokind IN ('f', 'p')
	ORDER BY n.nspname, p.proname, p.oid`
