// Package luaplugin loads event listeners written in Lua.
//
// A script declares handlers with the global on function:
//
//	on("PlayerChat", { priority = "LOW", name = "filter" }, function(e)
//	    if string.find(e:get("Message"), "spam") then
//	        e:set_cancelled(true)
//	    end
//	end)
//
//	on("PlayerChat", { priority = "MONITOR" }, function(e)
//	    print(e:name() .. " cancelled=" .. tostring(e:is_cancelled()))
//	end)
//
// The options table is optional and accepts priority, ignore_cancelled and
// name. Event names are resolved through a TypeTable supplied by the host.
//
// Inside a handler the event exposes name, is_cancelled, set_cancelled, get
// and set. get and set work on exported string, bool and numeric fields.
//
// Scripts run in a restricted state with only the base, table, string and
// math libraries. The state is not goroutine-safe, so every call into it is
// serialized by a per-plugin mutex. A Lua runtime error inside a handler is
// returned as the handler's error.
package luaplugin
